// Package agent provides the core domain model for the task-execution agent.
package agent

// State identifies a stage in the agent's execution lifecycle. The
// lifecycle is governed by exactly the seventeen states named below; no
// additional states may be introduced.
type State string

// Canonical states of the execution lifecycle.
const (
	StateIdle            State = "IDLE"
	StateReceivedTask    State = "RECEIVED_TASK"
	StateNormalized      State = "NORMALIZED"
	StatePlanning        State = "PLANNING"
	StatePlanValidated   State = "PLAN_VALIDATED"
	StateContextBuilding State = "CONTEXT_BUILDING"
	StateContextReady    State = "CONTEXT_READY"
	StateExecutingStep   State = "EXECUTING_STEP"
	StateStepCompleted   State = "STEP_COMPLETED"
	StateTesting         State = "TESTING"
	StateTestsPassed     State = "TESTS_PASSED"
	StateTestsFailed     State = "TESTS_FAILED"
	StateReflecting      State = "REFLECTING"
	StateRetrying        State = "RETRYING"
	StateStoppedSafe     State = "STOPPED_SAFE"
	StateStoppedError    State = "STOPPED_ERROR"
	StateCompleted       State = "COMPLETED"
)

// IsTerminal returns true if this state has no outgoing transitions.
func (s State) IsTerminal() bool {
	return s == StateStoppedSafe || s == StateStoppedError || s == StateCompleted
}

// IsValid returns true if the state is a recognized canonical state.
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateReceivedTask, StateNormalized, StatePlanning,
		StatePlanValidated, StateContextBuilding, StateContextReady,
		StateExecutingStep, StateStepCompleted, StateTesting,
		StateTestsPassed, StateTestsFailed, StateReflecting, StateRetrying,
		StateStoppedSafe, StateStoppedError, StateCompleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// AllStates returns all canonical states.
func AllStates() []State {
	return []State{
		StateIdle,
		StateReceivedTask,
		StateNormalized,
		StatePlanning,
		StatePlanValidated,
		StateContextBuilding,
		StateContextReady,
		StateExecutingStep,
		StateStepCompleted,
		StateTesting,
		StateTestsPassed,
		StateTestsFailed,
		StateReflecting,
		StateRetrying,
		StateStoppedSafe,
		StateStoppedError,
		StateCompleted,
	}
}

// TerminalStates returns all terminal states.
func TerminalStates() []State {
	return []State{StateStoppedSafe, StateStoppedError, StateCompleted}
}

// NonTerminalStates returns all non-terminal states.
func NonTerminalStates() []State {
	var states []State
	for _, s := range AllStates() {
		if !s.IsTerminal() {
			states = append(states, s)
		}
	}
	return states
}

// Outcome is the user-facing action implied by a terminal state.
type Outcome string

const (
	// OutcomePropose means the run succeeded and changes should be proposed.
	OutcomePropose Outcome = "propose"

	// OutcomeSafeStop means the run halted deliberately; the stop is a
	// correct, intentional result and must not be reported as an error.
	OutcomeSafeStop Outcome = "safe_stop"

	// OutcomeFault means the run halted due to a system fault that
	// warrants investigation.
	OutcomeFault Outcome = "fault"
)

// TerminalOutcome maps a terminal state to its user-facing outcome. The
// mapping is total over the three terminal states; any other state yields
// OutcomeFault because a run must never end in a transient state.
func TerminalOutcome(s State) Outcome {
	switch s {
	case StateCompleted:
		return OutcomePropose
	case StateStoppedSafe:
		return OutcomeSafeStop
	default:
		return OutcomeFault
	}
}
