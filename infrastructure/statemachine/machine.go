// Package statemachine provides the statekit integration for the agent
// lifecycle. The transition table in domain/policy is authoritative; the
// statechart mirrors it and every edge is guarded by a table lookup.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/ledger"
	"github.com/kitadev/agent-core/domain/policy"
)

// Context carries run state through the state machine.
type Context struct {
	RunID        string
	CurrentState agent.State
	Ledger       *ledger.Ledger
	Transitions  *policy.StateTransitions
}

// NewContext creates a machine context for one run.
func NewContext(runID string, led *ledger.Ledger) *Context {
	return &Context{
		RunID:        runID,
		CurrentState: agent.StateIdle,
		Ledger:       led,
		Transitions:  policy.DefaultTransitions(),
	}
}

// State IDs as StateID type for statekit.
const (
	stateIdle            statekit.StateID = statekit.StateID(agent.StateIdle)
	stateReceivedTask    statekit.StateID = statekit.StateID(agent.StateReceivedTask)
	stateNormalized      statekit.StateID = statekit.StateID(agent.StateNormalized)
	statePlanning        statekit.StateID = statekit.StateID(agent.StatePlanning)
	statePlanValidated   statekit.StateID = statekit.StateID(agent.StatePlanValidated)
	stateContextBuilding statekit.StateID = statekit.StateID(agent.StateContextBuilding)
	stateContextReady    statekit.StateID = statekit.StateID(agent.StateContextReady)
	stateExecutingStep   statekit.StateID = statekit.StateID(agent.StateExecutingStep)
	stateStepCompleted   statekit.StateID = statekit.StateID(agent.StateStepCompleted)
	stateTesting         statekit.StateID = statekit.StateID(agent.StateTesting)
	stateTestsPassed     statekit.StateID = statekit.StateID(agent.StateTestsPassed)
	stateTestsFailed     statekit.StateID = statekit.StateID(agent.StateTestsFailed)
	stateReflecting      statekit.StateID = statekit.StateID(agent.StateReflecting)
	stateRetrying        statekit.StateID = statekit.StateID(agent.StateRetrying)
	stateStoppedSafe     statekit.StateID = statekit.StateID(agent.StateStoppedSafe)
	stateStoppedError    statekit.StateID = statekit.StateID(agent.StateStoppedError)
	stateCompleted       statekit.StateID = statekit.StateID(agent.StateCompleted)
)

// NewAgentMachine creates the canonical agent statechart. Each edge event
// is named after its target state.
func NewAgentMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("agent").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("recordTransition", recordTransition).
		WithGuard("canTransition", guardCanTransition).
		State(stateIdle).
			On(eventFor(agent.StateReceivedTask)).Target(stateReceivedTask).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateReceivedTask).
			On(eventFor(agent.StateNormalized)).Target(stateNormalized).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateNormalized).
			On(eventFor(agent.StatePlanning)).Target(statePlanning).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateStoppedSafe)).Target(stateStoppedSafe).Guard("canTransition").Do("recordTransition").
			Done().
		State(statePlanning).
			On(eventFor(agent.StatePlanValidated)).Target(statePlanValidated).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateStoppedSafe)).Target(stateStoppedSafe).Guard("canTransition").Do("recordTransition").
			Done().
		State(statePlanValidated).
			On(eventFor(agent.StateContextBuilding)).Target(stateContextBuilding).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateContextBuilding).
			On(eventFor(agent.StateContextReady)).Target(stateContextReady).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateStoppedError)).Target(stateStoppedError).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateContextReady).
			On(eventFor(agent.StateExecutingStep)).Target(stateExecutingStep).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateExecutingStep).
			On(eventFor(agent.StateStepCompleted)).Target(stateStepCompleted).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateStoppedError)).Target(stateStoppedError).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateTestsFailed)).Target(stateTestsFailed).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateStepCompleted).
			On(eventFor(agent.StateTesting)).Target(stateTesting).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateTesting).
			On(eventFor(agent.StateTestsPassed)).Target(stateTestsPassed).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateTestsFailed)).Target(stateTestsFailed).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateTestsPassed).
			On(eventFor(agent.StateCompleted)).Target(stateCompleted).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateTestsFailed).
			On(eventFor(agent.StateReflecting)).Target(stateReflecting).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateReflecting).
			On(eventFor(agent.StateRetrying)).Target(stateRetrying).Guard("canTransition").Do("recordTransition").
			On(eventFor(agent.StateStoppedSafe)).Target(stateStoppedSafe).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateRetrying).
			On(eventFor(agent.StateExecutingStep)).Target(stateExecutingStep).Guard("canTransition").Do("recordTransition").
			Done().
		State(stateStoppedSafe).
			Final().
			Done().
		State(stateStoppedError).
			Final().
			Done().
		State(stateCompleted).
			Final().
			Done().
		Build()
}

// eventFor returns the event type that targets the given state.
func eventFor(to agent.State) statekit.EventType {
	return statekit.EventType(to)
}

// StateFromMachine converts the machine state ID to the domain State.
func StateFromMachine(stateID statekit.StateID) agent.State {
	return agent.State(stateID)
}
