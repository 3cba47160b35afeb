package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
	"github.com/kitadev/agent-core/infrastructure/logging"
	"github.com/kitadev/agent-core/infrastructure/sandbox"
)

// StepExecutor executes exactly one plan step. It never plans, reflects,
// or loops, and it never returns an error: every failure is captured in
// the result.
type StepExecutor struct {
	runner sandbox.Runner
	limits policy.ResourceLimits
}

// NewStepExecutor creates a step executor backed by the given sandbox.
func NewStepExecutor(runner sandbox.Runner, limits policy.ResourceLimits) *StepExecutor {
	return &StepExecutor{
		runner: runner,
		limits: limits,
	}
}

// Execute dispatches the step by action kind. Command steps go to the
// sandbox; edit steps write within the repository root; anything else
// fails with an unknown action type.
func (e *StepExecutor) Execute(ctx context.Context, step agent.PlanStep, repoRoot string) agent.ExecutionResult {
	logging.Info().
		Add(logging.StepID(step.ID)).
		Add(logging.Action(step.Action)).
		Add(logging.Str("description", step.Description)).
		Msg("executing step")

	switch step.Action {
	case agent.ActionCommand, agent.ActionTest:
		return e.executeCommand(ctx, step, repoRoot)
	case agent.ActionEdit:
		return e.executeEdit(step, repoRoot)
	default:
		return agent.ExecutionResult{
			Success: false,
			Error:   fmt.Sprintf("unknown action type: %s", step.Action),
		}
	}
}

func (e *StepExecutor) executeCommand(ctx context.Context, step agent.PlanStep, repoRoot string) agent.ExecutionResult {
	result, err := e.runner.Run(ctx, step.Target, repoRoot, e.limits)
	if err != nil {
		return agent.ExecutionResult{Success: false, Error: err.Error()}
	}

	errText := result.Stderr
	if result.TimedOut && errText == "" {
		errText = "command timed out"
	}

	return agent.ExecutionResult{
		Success: result.Success(),
		Output:  result.Stdout,
		Error:   errText,
	}
}

// executeEdit writes step.Details as the full file content. Overwrite
// semantics, not patch. The resolved path must stay inside the
// canonicalized repository root; traversal attempts fail before any I/O.
func (e *StepExecutor) executeEdit(step agent.PlanStep, repoRoot string) agent.ExecutionResult {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return agent.ExecutionResult{Success: false, Error: fmt.Sprintf("failed to resolve repository root: %v", err)}
	}

	full := filepath.Join(root, step.Target)
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return agent.ExecutionResult{
			Success: false,
			Error:   fmt.Sprintf("security error: path traversal attempt to %s", step.Target),
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return agent.ExecutionResult{Success: false, Error: fmt.Sprintf("failed to write file: %v", err)}
	}
	if err := os.WriteFile(full, []byte(step.Details), 0o644); err != nil {
		return agent.ExecutionResult{Success: false, Error: fmt.Sprintf("failed to write file: %v", err)}
	}

	logging.Debug().
		Add(logging.StepID(step.ID)).
		Add(logging.Str("path", full)).
		Msg("wrote file")

	return agent.ExecutionResult{
		Success: true,
		Output:  fmt.Sprintf("successfully wrote to %s", step.Target),
	}
}
