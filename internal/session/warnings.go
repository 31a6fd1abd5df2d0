package session

import "sync"

// WarningLedger accumulates malpractice events into a bounded counter.
// Warnings never decrease within a session. When the count first reaches the
// threshold the disqualify callback fires, exactly once, no matter how many
// further events arrive.
type WarningLedger struct {
	mu           sync.Mutex
	count        int
	threshold    int
	fired        bool
	onDisqualify func(reason string)
}

// NewWarningLedger creates a ledger with the given threshold. onDisqualify
// may be nil.
func NewWarningLedger(threshold int, onDisqualify func(reason string)) *WarningLedger {
	if threshold <= 0 {
		threshold = 10
	}
	return &WarningLedger{threshold: threshold, onDisqualify: onDisqualify}
}

// Record increments the counter and returns the new value. The increment is
// a read-modify-write under the lock so concurrent detectors never lose
// updates.
func (l *WarningLedger) Record(reason string) int {
	l.mu.Lock()
	count := l.count + 1
	l.count = count
	fire := count >= l.threshold && !l.fired
	if fire {
		l.fired = true
	}
	cb := l.onDisqualify
	l.mu.Unlock()

	if fire && cb != nil {
		cb(reason)
	}
	return count
}

// Count returns the current warning count.
func (l *WarningLedger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Threshold returns the configured disqualification threshold.
func (l *WarningLedger) Threshold() int {
	return l.threshold
}
