package session

import (
	"testing"
	"time"
)

func fastTimer(seconds int) *Timer {
	tm := NewTimer(seconds)
	tm.tick = time.Millisecond
	return tm
}

func TestTimerExpiresOnce(t *testing.T) {
	t.Parallel()

	tm := fastTimer(3)
	tm.Start()

	select {
	case <-tm.Expired():
	case <-time.After(2 * time.Second):
		t.Fatal("timer never expired")
	}
	if tm.Remaining() != 0 {
		t.Errorf("expected 0 remaining after expiry, got %d", tm.Remaining())
	}

	// The channel is closed; a second receive must not block.
	select {
	case <-tm.Expired():
	default:
		t.Error("expired channel should stay closed")
	}
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	t.Parallel()

	tm := fastTimer(5)
	tm.Start()
	tm.Stop()
	tm.Stop() // idempotent

	select {
	case <-tm.Expired():
		t.Error("stopped timer must not expire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTimerDuplicateStartDoesNotDoubleCount(t *testing.T) {
	t.Parallel()

	tm := fastTimer(200)
	tm.Start()
	tm.Start()
	time.Sleep(50 * time.Millisecond)
	tm.Stop()

	// A doubled countdown would have burned ~100 ticks; a single one ~50.
	if rem := tm.Remaining(); rem < 110 {
		t.Errorf("remaining %d suggests duplicate countdown goroutines", rem)
	}
}

func TestTimerStopAfterExpiryIsSafe(t *testing.T) {
	t.Parallel()

	tm := fastTimer(1)
	tm.Start()
	<-tm.Expired()
	tm.Stop()
}
