package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/kitadev/agent-core/domain/agent"
)

// recordTransition appends the transition to the ledger and advances the
// context state. Actions receive a pointer to the context; since our
// context is *Context, actions receive **Context.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Ledger == nil {
		return
	}

	c := *ctx
	from := c.CurrentState

	var to agent.State
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToState
		reason = payload.Reason
	} else {
		to = agent.State(event.Type)
	}

	prev := from
	c.Ledger.RecordTransition(&prev, to, reason)
	c.CurrentState = to
}
