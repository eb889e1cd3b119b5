package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Success Path Tests
// =============================================================================

func TestState_SuccessPathOrder(t *testing.T) {
	want := []State{
		StatePulling,
		StateStartingCandidate,
		StateHealthChecking,
		StateCuttingOver,
		StateDecommissioning,
		StateDone,
	}

	state := StatePulling
	got := []State{state}
	for !state.Terminal() {
		state = state.Next()
		got = append(got, state)
	}
	assert.Equal(t, want, got)
}

func TestState_Terminal(t *testing.T) {
	assert.True(t, StateDone.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StatePulling.Terminal())
	assert.False(t, StateCuttingOver.Terminal())
}

func TestState_NextOnTerminalPanics(t *testing.T) {
	assert.Panics(t, func() { StateDone.Next() })
	assert.Panics(t, func() { StateFailed.Next() })
}

// =============================================================================
// Failure Transition Tests
// =============================================================================

func TestState_CanFailFromEveryNonTerminal(t *testing.T) {
	nonTerminal := []State{
		StatePulling,
		StateStartingCandidate,
		StateHealthChecking,
		StateCuttingOver,
		StateDecommissioning,
	}
	for _, s := range nonTerminal {
		assert.True(t, s.CanFail(), "state %s should allow failure", s)
	}
}

func TestState_TerminalStatesCannotFail(t *testing.T) {
	assert.False(t, StateDone.CanFail())
	assert.False(t, StateFailed.CanFail())
}

// =============================================================================
// String Tests
// =============================================================================

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePulling, "pulling"},
		{StateStartingCandidate, "starting-candidate"},
		{StateHealthChecking, "health-checking"},
		{StateCuttingOver, "cutting-over"},
		{StateDecommissioning, "decommissioning"},
		{StateDone, "done"},
		{StateFailed, "failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}
