// Package planner turns a task plus repository context into an ordered
// execution plan. The planning oracle is pluggable; the built-in scripted
// planner serves tests and offline runs.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kitadev/agent-core/domain/agent"
)

// ErrEmptyTask indicates planning was requested without a task.
var ErrEmptyTask = errors.New("task cannot be empty")

// PlanningError wraps a failure from the planning oracle. The controller
// treats any planning error as a safe stop, never a fault.
type PlanningError struct {
	Err error
}

func (e *PlanningError) Error() string {
	return "planning failed: " + e.Err.Error()
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// Planner generates a plan for a task given the repository context.
type Planner interface {
	GeneratePlan(ctx context.Context, task, repoContext string) (agent.Plan, error)
}

// defaultStrategy is used when the oracle response omits one.
const defaultStrategy = "Run tests"

// planPayload is the wire shape of an oracle response.
type planPayload struct {
	Steps    []agent.PlanStep `json:"steps"`
	Strategy string           `json:"strategy"`
}

// ParsePlan decodes an oracle response into a Plan. Markdown code fences
// around the JSON body are stripped first.
func ParsePlan(response string) (agent.Plan, error) {
	clean := strings.TrimSpace(response)
	if strings.HasPrefix(clean, "```") {
		if _, rest, ok := strings.Cut(clean, "\n"); ok {
			clean = rest
		}
	}
	if strings.HasSuffix(clean, "```") {
		if idx := strings.LastIndex(clean, "\n"); idx >= 0 {
			clean = clean[:idx]
		}
	}

	var payload planPayload
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return agent.Plan{}, &PlanningError{Err: fmt.Errorf("invalid JSON from oracle: %w", err)}
	}

	strategy := payload.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}

	return agent.Plan{
		Steps:              payload.Steps,
		ValidationStrategy: strategy,
	}, nil
}

// ScriptedPlanner returns pre-seeded plans in order. It backs tests and
// dry runs where no oracle is reachable.
type ScriptedPlanner struct {
	plans []agent.Plan
	next  int
}

// NewScriptedPlanner creates a planner that replays the given plans.
func NewScriptedPlanner(plans ...agent.Plan) *ScriptedPlanner {
	return &ScriptedPlanner{plans: plans}
}

// GeneratePlan returns the next scripted plan.
func (p *ScriptedPlanner) GeneratePlan(ctx context.Context, task, repoContext string) (agent.Plan, error) {
	if task == "" {
		return agent.Plan{}, &PlanningError{Err: ErrEmptyTask}
	}
	if p.next >= len(p.plans) {
		return agent.Plan{}, &PlanningError{Err: errors.New("no scripted plan remaining")}
	}
	plan := p.plans[p.next]
	p.next++
	return plan, nil
}

// StaticPlanner always returns the same plan. Useful for single-run tools.
type StaticPlanner struct {
	plan agent.Plan
}

// NewStaticPlanner creates a planner that always returns plan.
func NewStaticPlanner(plan agent.Plan) *StaticPlanner {
	return &StaticPlanner{plan: plan}
}

// GeneratePlan returns the fixed plan.
func (p *StaticPlanner) GeneratePlan(ctx context.Context, task, repoContext string) (agent.Plan, error) {
	if task == "" {
		return agent.Plan{}, &PlanningError{Err: ErrEmptyTask}
	}
	return p.plan, nil
}
