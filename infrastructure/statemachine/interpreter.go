package statemachine

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/infrastructure/logging"
)

// TransitionPayload carries the target state and reason with an event.
type TransitionPayload struct {
	ToState agent.State
	Reason  string
}

// forcedStopPrefix marks ledger records written by ForceErrorStop.
const forcedStopPrefix = "FORCED STOP: "

// Interpreter wraps the statekit interpreter with lifecycle rules: every
// transition needs a reason, illegal moves are rejected before any
// mutation, and the forced stop is the only path around the table.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter for a fresh run.
func NewInterpreter(ctx *Context) (*Interpreter, error) {
	machine, err := NewAgentMachine()
	if err != nil {
		return nil, fmt.Errorf("building agent machine: %w", err)
	}

	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})

	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}, nil
}

// Start enters the initial state and writes the initialization record.
// The initialization record has no previous state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.CurrentState = agent.State(i.interp.State().Value)
	if i.ctx.Ledger != nil {
		i.ctx.Ledger.RecordTransition(nil, i.ctx.CurrentState, "run initialized")
	}
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// State returns the current state.
func (i *Interpreter) State() agent.State {
	return agent.State(i.interp.State().Value)
}

// Transition moves to the target state. The reason is mandatory; an empty
// reason or an illegal move leaves the machine and ledger untouched.
func (i *Interpreter) Transition(to agent.State, reason string) error {
	if reason == "" {
		return agent.ErrEmptyReason
	}

	from := i.ctx.CurrentState
	if !i.CanTransition(to) {
		return &agent.TransitionError{From: from, To: to, Reason: reason}
	}

	i.interp.Send(statekit.Event{
		Type:    eventFor(to),
		Payload: TransitionPayload{ToState: to, Reason: reason},
	})
	i.ctx.CurrentState = agent.State(i.interp.State().Value)

	logging.Debug().
		Add(logging.RunID(i.ctx.RunID)).
		Add(logging.FromState(from)).
		Add(logging.ToState(i.ctx.CurrentState)).
		Add(logging.Reason(reason)).
		Msg("state transition")

	return nil
}

// CanTransition checks the policy table for the current state.
func (i *Interpreter) CanTransition(to agent.State) bool {
	return i.ctx.Transitions.CanTransition(i.ctx.CurrentState, to)
}

// ForceErrorStop drives the machine into StoppedError regardless of the
// transition table. It is the last-resort escape hatch: it never fails,
// and calling it in a terminal state is a no-op so repeated invocations
// stay idempotent.
func (i *Interpreter) ForceErrorStop(reason string) {
	if i.ctx.CurrentState.IsTerminal() {
		return
	}

	from := i.ctx.CurrentState

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "agent",
		CurrentState: stateStoppedError,
		Context:      i.ctx,
		CreatedAt:    time.Now(),
	}
	if err := i.interp.Restore(snapshot); err != nil {
		// Restore only fails for unknown state IDs; StoppedError is part
		// of the machine, so keep the context consistent regardless.
		logging.Error().
			Add(logging.RunID(i.ctx.RunID)).
			Add(logging.ErrorField(err)).
			Msg("machine restore failed during forced stop")
	}
	i.ctx.CurrentState = agent.StateStoppedError

	prev := from
	if i.ctx.Ledger != nil {
		i.ctx.Ledger.RecordTransition(&prev, agent.StateStoppedError, forcedStopPrefix+reason)
	}

	logging.Error().
		Add(logging.RunID(i.ctx.RunID)).
		Add(logging.FromState(from)).
		Add(logging.Reason(reason)).
		Msg("forced error stop")
}

// IsTerminal reports whether the machine is in a final state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Matches checks if the current state matches the given state ID.
func (i *Interpreter) Matches(state agent.State) bool {
	return i.interp.Matches(statekit.StateID(state))
}
