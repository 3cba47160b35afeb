// Package policy provides domain models for policy enforcement.
package policy

import (
	"github.com/kitadev/agent-core/domain/agent"
)

// StateTransitions defines allowed state transitions.
//
// Thread Safety: StateTransitions is NOT safe for concurrent modification.
// It should be fully configured before being passed to the interpreter and
// treated as immutable thereafter. The read methods are safe for concurrent
// use after configuration is complete.
type StateTransitions struct {
	transitions map[agent.State][]agent.State
}

// TransitionRules maps states to the states they can transition to.
type TransitionRules map[agent.State][]agent.State

// NewStateTransitions creates a new empty state transition configuration.
func NewStateTransitions() *StateTransitions {
	return &StateTransitions{
		transitions: make(map[agent.State][]agent.State),
	}
}

// NewStateTransitionsWith creates a state transition configuration from a
// rules map.
func NewStateTransitionsWith(rules TransitionRules) *StateTransitions {
	t := NewStateTransitions()
	for from, toStates := range rules {
		for _, to := range toStates {
			t.Allow(from, to)
		}
	}
	return t
}

// Allow permits a transition from one state to another.
func (t *StateTransitions) Allow(from, to agent.State) *StateTransitions {
	t.transitions[from] = append(t.transitions[from], to)
	return t
}

// CanTransition checks if a transition is allowed.
func (t *StateTransitions) CanTransition(from, to agent.State) bool {
	allowed, exists := t.transitions[from]
	if !exists {
		return false
	}

	for _, state := range allowed {
		if state == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns all states reachable from the given state.
func (t *StateTransitions) AllowedTransitions(from agent.State) []agent.State {
	return t.transitions[from]
}

// DefaultTransitions returns the authoritative lifecycle transition table.
// Terminal states (StoppedSafe, StoppedError, Completed) have no outgoing
// transitions; the only way into StoppedError outside this table is the
// interpreter's forced stop.
func DefaultTransitions() *StateTransitions {
	return NewStateTransitionsWith(TransitionRules{
		agent.StateIdle:            {agent.StateReceivedTask},
		agent.StateReceivedTask:    {agent.StateNormalized},
		agent.StateNormalized:      {agent.StatePlanning, agent.StateStoppedSafe},
		agent.StatePlanning:        {agent.StatePlanValidated, agent.StateStoppedSafe},
		agent.StatePlanValidated:   {agent.StateContextBuilding},
		agent.StateContextBuilding: {agent.StateContextReady, agent.StateStoppedError},
		agent.StateContextReady:    {agent.StateExecutingStep},
		agent.StateExecutingStep:   {agent.StateStepCompleted, agent.StateStoppedError, agent.StateTestsFailed},
		agent.StateStepCompleted:   {agent.StateTesting},
		agent.StateTesting:         {agent.StateTestsPassed, agent.StateTestsFailed},
		agent.StateTestsPassed:     {agent.StateCompleted},
		agent.StateTestsFailed:     {agent.StateReflecting},
		agent.StateReflecting:      {agent.StateRetrying, agent.StateStoppedSafe},
		agent.StateRetrying:        {agent.StateExecutingStep},
	})
}
