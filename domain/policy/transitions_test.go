package policy

import (
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
)

func TestDefaultTransitionsTable(t *testing.T) {
	table := DefaultTransitions()

	tests := []struct {
		from agent.State
		to   agent.State
		want bool
	}{
		{agent.StateIdle, agent.StateReceivedTask, true},
		{agent.StateReceivedTask, agent.StateNormalized, true},
		{agent.StateNormalized, agent.StatePlanning, true},
		{agent.StateNormalized, agent.StateStoppedSafe, true},
		{agent.StatePlanning, agent.StatePlanValidated, true},
		{agent.StatePlanning, agent.StateStoppedSafe, true},
		{agent.StatePlanValidated, agent.StateContextBuilding, true},
		{agent.StateContextBuilding, agent.StateContextReady, true},
		{agent.StateContextBuilding, agent.StateStoppedError, true},
		{agent.StateContextReady, agent.StateExecutingStep, true},
		{agent.StateExecutingStep, agent.StateStepCompleted, true},
		{agent.StateExecutingStep, agent.StateTestsFailed, true},
		{agent.StateExecutingStep, agent.StateStoppedError, true},
		{agent.StateStepCompleted, agent.StateTesting, true},
		{agent.StateTesting, agent.StateTestsPassed, true},
		{agent.StateTesting, agent.StateTestsFailed, true},
		{agent.StateTestsPassed, agent.StateCompleted, true},
		{agent.StateTestsFailed, agent.StateReflecting, true},
		{agent.StateReflecting, agent.StateRetrying, true},
		{agent.StateReflecting, agent.StateStoppedSafe, true},
		{agent.StateRetrying, agent.StateExecutingStep, true},

		// Shortcuts the lifecycle must not permit.
		{agent.StateIdle, agent.StateCompleted, false},
		{agent.StateIdle, agent.StateExecutingStep, false},
		{agent.StateReceivedTask, agent.StatePlanning, false},
		{agent.StatePlanValidated, agent.StateExecutingStep, false},
		{agent.StateExecutingStep, agent.StateCompleted, false},
		{agent.StateTestsFailed, agent.StateRetrying, false},
		{agent.StateRetrying, agent.StateTesting, false},
		{agent.StateNormalized, agent.StateStoppedError, false},
	}

	for _, tt := range tests {
		if got := table.CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatesHaveNoOutgoing(t *testing.T) {
	table := DefaultTransitions()

	for _, from := range agent.TerminalStates() {
		if got := table.AllowedTransitions(from); len(got) != 0 {
			t.Errorf("terminal state %s has outgoing transitions %v", from, got)
		}
	}
}

func TestEveryStateIsReachable(t *testing.T) {
	table := DefaultTransitions()

	reachable := map[agent.State]bool{agent.StateIdle: true}
	queue := []agent.State{agent.StateIdle}
	for len(queue) > 0 {
		from := queue[0]
		queue = queue[1:]
		for _, to := range table.AllowedTransitions(from) {
			if !reachable[to] {
				reachable[to] = true
				queue = append(queue, to)
			}
		}
	}

	for _, s := range agent.AllStates() {
		if s == agent.StateStoppedError {
			// Reached via the table from execution states, and via the
			// forced stop from anywhere.
			continue
		}
		if !reachable[s] {
			t.Errorf("state %s is unreachable from %s", s, agent.StateIdle)
		}
	}
	if !reachable[agent.StateStoppedError] {
		t.Error("StoppedError should be reachable through the table")
	}
}

func TestCustomTransitions(t *testing.T) {
	table := NewStateTransitions().
		Allow(agent.StateIdle, agent.StateReceivedTask).
		Allow(agent.StateReceivedTask, agent.StateStoppedSafe)

	if !table.CanTransition(agent.StateIdle, agent.StateReceivedTask) {
		t.Error("configured transition should be allowed")
	}
	if table.CanTransition(agent.StateIdle, agent.StateStoppedSafe) {
		t.Error("unconfigured transition should be rejected")
	}
	if table.CanTransition(agent.StateNormalized, agent.StatePlanning) {
		t.Error("unknown source state should be rejected")
	}
}
