package session

import (
	"sync"
	"time"
)

// Timer is the single countdown clock for a session. One-second resolution,
// one Expired emission, idempotent Stop. Start is guarded so a duplicate
// registration cannot double-fire.
type Timer struct {
	mu        sync.Mutex
	remaining int
	started   bool
	tick      time.Duration // overridable in tests
	expired   chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewTimer creates a timer counting down from totalSeconds.
func NewTimer(totalSeconds int) *Timer {
	return &Timer{
		remaining: totalSeconds,
		tick:      time.Second,
		expired:   make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

// Start launches the countdown goroutine. Calling Start twice is a no-op.
func (t *Timer) Start() {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	go t.run()
}

func (t *Timer) run() {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.remaining > 0 {
				t.remaining--
			}
			done := t.remaining <= 0
			t.mu.Unlock()

			if done {
				close(t.expired)
				return
			}
		}
	}
}

// Stop halts the countdown. Safe to call multiple times and after expiry.
func (t *Timer) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}

// Remaining returns the seconds left.
func (t *Timer) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}

// Expired is closed exactly once, when the countdown reaches zero. It never
// closes if the timer was stopped first.
func (t *Timer) Expired() <-chan struct{} {
	return t.expired
}
