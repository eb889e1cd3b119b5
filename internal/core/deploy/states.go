package deploy

import "fmt"

// =============================================================================
// Blue-Green State Machine
// =============================================================================

// State is a station in the per-(app, server) blue-green sequence.
type State int

const (
	StatePulling State = iota
	StateStartingCandidate
	StateHealthChecking
	StateCuttingOver
	StateDecommissioning
	StateDone
	// StateFailed is absorbing: reachable from any non-terminal state,
	// never left.
	StateFailed
)

// String returns the state's name for logs and history rows.
func (s State) String() string {
	switch s {
	case StatePulling:
		return "pulling"
	case StateStartingCandidate:
		return "starting-candidate"
	case StateHealthChecking:
		return "health-checking"
	case StateCuttingOver:
		return "cutting-over"
	case StateDecommissioning:
		return "decommissioning"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether the state machine has stopped.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Next returns the state following s on the success path.
// Calling Next on a terminal state is a programming error.
func (s State) Next() State {
	switch s {
	case StatePulling:
		return StateStartingCandidate
	case StateStartingCandidate:
		return StateHealthChecking
	case StateHealthChecking:
		return StateCuttingOver
	case StateCuttingOver:
		return StateDecommissioning
	case StateDecommissioning:
		return StateDone
	default:
		panic(fmt.Sprintf("no successor for terminal state %s", s))
	}
}

// CanFail reports whether a transition to StateFailed is legal from s.
// Terminal states never transition again.
func (s State) CanFail() bool {
	return !s.Terminal()
}
