package session

import (
	"fmt"
	"sync"

	"parley/internal/domain"
)

// Machine guards the session lifecycle. Transitions outside the table in
// domain.SessionState are programming errors and are rejected, not applied.
type Machine struct {
	mu    sync.RWMutex
	state domain.SessionState
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: domain.StateIdle}
}

// State returns the current lifecycle state.
func (m *Machine) State() domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transition moves the machine to a new state if the move is legal.
func (m *Machine) Transition(to domain.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !legal(m.state, to) {
		return fmt.Errorf("illegal session transition %s -> %s", m.state, to)
	}
	m.state = to
	return nil
}

func legal(from, to domain.SessionState) bool {
	if from.Terminal() {
		return false
	}
	if to == domain.StateFailed {
		return true
	}
	switch from {
	case domain.StateIdle:
		return to == domain.StateAwaitingPeerKey
	case domain.StateAwaitingPeerKey:
		return to == domain.StateKeyExchangeInFlight
	case domain.StateKeyExchangeInFlight:
		return to == domain.StateEstablished
	case domain.StateEstablished:
		return to == domain.StateClosed
	}
	return false
}
