package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/kitadev/agent-core/domain/agent"
)

// guardCanTransition checks the transition against the policy table.
// Guards receive the context by value; since our context is *Context, the
// guard receives *Context directly.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Transitions == nil {
		return false
	}

	from := ctx.CurrentState

	var to agent.State
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToState
	} else {
		to = agent.State(event.Type)
	}

	return ctx.Transitions.CanTransition(from, to)
}
