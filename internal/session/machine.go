package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Phase enumerates the session's lifecycle phases. Forward-only; terminated
// is absorbing.
type Phase string

const (
	PhaseSetupCamera Phase = "setup-camera"
	PhaseSetupRules  Phase = "setup-rules"
	PhaseActive      Phase = "active"
	PhaseTerminated  Phase = "terminated"
)

// Common machine errors.
var (
	ErrTerminated        = errors.New("session already terminated")
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// Machine guards the session's phase transitions and owns the single-shot
// finalize latch. Timer expiry, warning threshold, and manual finish all race
// from independent sources; only the caller that wins the latch may finalize.
type Machine struct {
	mu         sync.Mutex
	phase      Phase
	finalizing atomic.Bool
}

// NewMachine starts a machine in the setup-camera phase.
func NewMachine() *Machine {
	return &Machine{phase: PhaseSetupCamera}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Advance moves the machine one step forward. Only the exact next phase is
// accepted; re-entering an earlier phase is never possible.
func (m *Machine) Advance(to Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseTerminated {
		return ErrTerminated
	}
	if next(m.phase) != to {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.phase, to)
	}
	m.phase = to
	return nil
}

func next(p Phase) Phase {
	switch p {
	case PhaseSetupCamera:
		return PhaseSetupRules
	case PhaseSetupRules:
		return PhaseActive
	case PhaseActive:
		return PhaseTerminated
	}
	return ""
}

// BeginFinalize claims the finalize latch. Exactly one caller ever gets
// true; later triggers are no-ops. Claimed before any async work so the
// race between triggers is closed structurally.
func (m *Machine) BeginFinalize() bool {
	return m.finalizing.CompareAndSwap(false, true)
}

// Finalizing reports whether the latch has been claimed.
func (m *Machine) Finalizing() bool {
	return m.finalizing.Load()
}

// Terminate forces the phase to terminated regardless of the current phase.
// Idempotent.
func (m *Machine) Terminate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseTerminated
}
