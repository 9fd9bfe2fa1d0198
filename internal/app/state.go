package app

import (
	"sync"
	"time"
)

// State is a listening state machine state
type State int

const (
	// StateWakeIdle waits for the wake word or a manual trigger
	StateWakeIdle State = iota

	// StateListening captures a command after a wake
	StateListening
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateWakeIdle:
		return "wake_idle"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// StateChangeListener is called after every transition
type StateChangeListener func(oldState, newState State)

// StateMachine tracks the assistant state and notifies listeners
type StateMachine struct {
	mu        sync.RWMutex
	current   State
	stateTime time.Time
	listeners []StateChangeListener
	now       func() time.Time
}

// NewStateMachine creates a state machine in StateWakeIdle
func NewStateMachine(now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{
		current:   StateWakeIdle,
		stateTime: now(),
		now:       now,
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// StateTime returns when the current state was entered
func (sm *StateMachine) StateTime() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateTime
}

// Transition moves to newState. It returns false and changes nothing if
// the transition is not allowed.
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.current
	if !isValidTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}
	sm.current = newState
	sm.stateTime = sm.now()
	listeners := append([]StateChangeListener(nil), sm.listeners...)
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}
	return true
}

// AddListener registers a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

func isValidTransition(from, to State) bool {
	switch from {
	case StateWakeIdle:
		return to == StateListening
	case StateListening:
		return to == StateWakeIdle
	default:
		return false
	}
}
