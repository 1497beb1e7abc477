package chat

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/counsel/internal/bus"
)

// State is the lifecycle state of a conversation session.
type State string

const (
	Closed  State = "CLOSED"
	Opening State = "OPENING"
	Open    State = "OPEN"
)

// Opening -> Opening happens when a second Open supersedes one still in flight.
var validTransitions = map[State][]State{
	Closed:  {Opening},
	Opening: {Open, Closed, Opening},
	Open:    {Opening, Closed},
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Closed state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Closed, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to the given state or returns an error if the move is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(EventStateChanged, StateChange{From: from, To: to})
	return nil
}

// StateChange is the payload of EventStateChanged.
type StateChange struct {
	From State
	To   State
}
