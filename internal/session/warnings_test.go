package session

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWarningLedgerCountsMonotonically(t *testing.T) {
	t.Parallel()

	l := NewWarningLedger(10, nil)
	for i := 1; i <= 5; i++ {
		if got := l.Record("focus lost"); got != i {
			t.Fatalf("record %d: expected count %d, got %d", i, i, got)
		}
	}
	if l.Count() != 5 {
		t.Errorf("expected count 5, got %d", l.Count())
	}
}

func TestWarningLedgerFiresDisqualifyOnce(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	var reason string
	l := NewWarningLedger(3, func(r string) {
		fired.Add(1)
		reason = r
	})

	l.Record("first")
	l.Record("second")
	l.Record("third")
	l.Record("fourth")
	l.Record("fifth")

	if fired.Load() != 1 {
		t.Errorf("expected disqualify callback exactly once, got %d", fired.Load())
	}
	if reason != "third" {
		t.Errorf("expected callback with the threshold-crossing reason, got %q", reason)
	}
	if l.Count() != 5 {
		t.Errorf("warnings keep accumulating past the threshold, got %d", l.Count())
	}
}

func TestWarningLedgerConcurrentRecordsLoseNothing(t *testing.T) {
	t.Parallel()

	const workers = 8
	const perWorker = 25

	var fired atomic.Int32
	l := NewWarningLedger(50, func(string) { fired.Add(1) })

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				l.Record("concurrent")
			}
		}()
	}
	wg.Wait()

	if got := l.Count(); got != workers*perWorker {
		t.Errorf("expected %d warnings, got %d", workers*perWorker, got)
	}
	if fired.Load() != 1 {
		t.Errorf("expected disqualify exactly once under contention, got %d", fired.Load())
	}
}

func TestWarningLedgerDefaultThreshold(t *testing.T) {
	t.Parallel()

	l := NewWarningLedger(0, nil)
	if l.Threshold() != 10 {
		t.Errorf("expected default threshold 10, got %d", l.Threshold())
	}
}
