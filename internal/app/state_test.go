package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateMachineTransitions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	sm := NewStateMachine(clock.Now)

	var seen []string
	sm.AddListener(func(from, to State) {
		seen = append(seen, from.String()+"->"+to.String())
	})

	assert.Equal(t, StateWakeIdle, sm.Current())
	assert.False(t, sm.Transition(StateWakeIdle))

	clock.Advance(time.Second)
	assert.True(t, sm.Transition(StateListening))
	assert.Equal(t, clock.Now(), sm.StateTime())
	assert.False(t, sm.Transition(StateListening))
	assert.True(t, sm.Transition(StateWakeIdle))

	assert.Equal(t, []string{"wake_idle->listening", "listening->wake_idle"}, seen)
}

func TestStripFillers(t *testing.T) {
	fillers := []string{"hey jarvis", "jarvis", "please"}

	tests := []struct {
		in   string
		want string
	}{
		{"Hey Jarvis turn on the lights", "turn on the lights"},
		{"turn on the lights please", "turn on the lights"},
		{"JARVIS", ""},
		{"   ", ""},
		{"open the door", "open the door"},
		{"jarvisplease", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFillers(tt.in, fillers))
		})
	}
}

func TestSessionIDsAreUnique(t *testing.T) {
	now := time.Now()
	a := newSession(now, TriggerKeyword, 0)
	b := newSession(now, TriggerKeyword, 0)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2*time.Second, a.Elapsed(now.Add(2*time.Second)))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(ErrWakeInit))
}
