package agent

import (
	"errors"
	"fmt"
)

// Domain errors for the agent runtime.
var (
	// ErrEmptyReason indicates a transition was attempted without a reason.
	// The state machine rejects it before any mutation.
	ErrEmptyReason = errors.New("transition reason must not be empty")

	// ErrInvalidState indicates the state is not a recognized canonical state.
	ErrInvalidState = errors.New("invalid state")

	// ErrRunTerminated indicates an operation was attempted after the run
	// reached a terminal state.
	ErrRunTerminated = errors.New("run already terminated")
)

// TransitionError reports an attempted move not present in the transition
// table. The caller is expected to force the machine into StoppedError.
type TransitionError struct {
	From   State
	To     State
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s (reason: %s)", e.From, e.To, e.Reason)
}

// SecurityViolation reports an allowlist, resource-limit, or path-traversal
// breach. It aborts the current step, not the whole run.
type SecurityViolation struct {
	Msg string
}

func (e *SecurityViolation) Error() string {
	return "security violation: " + e.Msg
}

// IsSecurityViolation reports whether err is a SecurityViolation.
func IsSecurityViolation(err error) bool {
	var sv *SecurityViolation
	return errors.As(err, &sv)
}
