package session

import "time"

// EventKind identifies a typed event flowing through the engine's loop.
type EventKind string

const (
	EventFocusLost        EventKind = "focus_lost"
	EventFullscreenExited EventKind = "fullscreen_exited"
	EventFaceMismatch     EventKind = "face_mismatch"
	EventManualFinish     EventKind = "manual_finish"
)

// Event is a single detector or user signal. Detectors publish these to the
// engine's single consumer goroutine, which serializes warning accumulation
// and finalize triggers.
type Event struct {
	Kind   EventKind
	Reason string
	At     time.Time
}

// malpractice reports whether this event counts against the warning ledger.
func (e Event) malpractice() bool {
	switch e.Kind {
	case EventFocusLost, EventFullscreenExited, EventFaceMismatch:
		return true
	}
	return false
}
