package agent

// ActionKind classifies what a plan step does.
type ActionKind string

const (
	// ActionCommand runs a shell command inside the sandbox.
	ActionCommand ActionKind = "COMMAND"

	// ActionEdit writes a file inside the repository (full overwrite).
	ActionEdit ActionKind = "EDIT"

	// ActionTest runs a verification command inside the sandbox.
	ActionTest ActionKind = "TEST"
)

// IsValid returns true if the kind is one of the three recognized actions.
func (k ActionKind) IsValid() bool {
	switch k {
	case ActionCommand, ActionEdit, ActionTest:
		return true
	default:
		return false
	}
}

// PlanStep is a single ordered unit of work produced by the planner.
type PlanStep struct {
	// ID is unique within one run.
	ID int `json:"id"`

	// Description is human-readable intent for the step.
	Description string `json:"description"`

	// Action selects command execution, file edit, or verification.
	Action ActionKind `json:"action_type"`

	// Target is a command line for Command/Test steps, or a repository
	// relative file path for Edit steps.
	Target string `json:"target"`

	// Details carries the full file content for Edit steps.
	Details string `json:"details,omitempty"`
}

// Plan is an ordered sequence of steps plus the strategy used to verify
// the result. Step order is execution order.
type Plan struct {
	Steps              []PlanStep `json:"steps"`
	ValidationStrategy string     `json:"strategy"`
}

// Len returns the number of steps in the plan.
func (p *Plan) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Steps)
}
