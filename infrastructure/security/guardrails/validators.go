// Package guardrails provides soft safety checks for tasks, plans, and
// execution output. Validators report findings instead of failing: the
// caller decides what to do with a blocked result.
package guardrails

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
)

// MaxPlanSteps is the hard cap on plan length.
const MaxPlanSteps = 10

var scopeExpansionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brefactor\s+(?:the\s+)?entire\b`),
	regexp.MustCompile(`(?i)\brewrite\s+(?:the\s+)?whole\b`),
	regexp.MustCompile(`(?i)\bupgrade\s+all\b`),
	regexp.MustCompile(`(?i)\bchange\s+everything\b`),
	regexp.MustCompile(`(?i)\bfix\s+all\b`),
}

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdelete\s+(?:the\s+)?database\b`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
	regexp.MustCompile(`(?i)\brm\s+-rf\b`),
	regexp.MustCompile(`(?i)\bformat\s+(?:the\s+)?disk\b`),
	regexp.MustCompile(`(?i)\bwipe\b`),
	regexp.MustCompile(`(?i)\bpurge\s+all\b`),
}

var vaguePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^improve\s+performance$`),
	regexp.MustCompile(`(?i)^make\s+it\s+faster$`),
	regexp.MustCompile(`(?i)^optimize$`),
	regexp.MustCompile(`(?i)^fix\s+bugs$`),
	regexp.MustCompile(`(?i)^clean\s+up\s+code$`),
	regexp.MustCompile(`(?i)^make\s+it\s+better$`),
}

// TaskValidator screens task descriptions before a run starts.
type TaskValidator struct{}

// NewTaskValidator creates a task validator.
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{}
}

// ValidateTask checks a task description for vagueness, scope expansion,
// and unsafe operations.
func (v *TaskValidator) ValidateTask(task string) policy.ValidationResult {
	var warnings, blockers []string

	lowered := strings.ToLower(strings.TrimSpace(task))

	for _, p := range vaguePatterns {
		if p.MatchString(lowered) {
			blockers = append(blockers, fmt.Sprintf("task is too vague: %q, provide specific requirements", task))
			break
		}
	}

	for _, p := range scopeExpansionPatterns {
		if p.MatchString(lowered) {
			blockers = append(blockers, "task implies scope expansion, narrow the scope")
			break
		}
	}

	for _, p := range unsafePatterns {
		if p.MatchString(lowered) {
			blockers = append(blockers, "task contains potentially unsafe operation, requires manual review")
			break
		}
	}

	words := len(strings.Fields(task))
	if words < 3 {
		warnings = append(warnings, "task description is very short, consider adding more detail")
	}
	if words > 100 {
		warnings = append(warnings, "task description is very long, consider breaking into smaller tasks")
	}

	return policy.NewValidationResult(warnings, blockers)
}

// PlanValidator screens generated plans before execution.
type PlanValidator struct{}

// NewPlanValidator creates a plan validator.
func NewPlanValidator() *PlanValidator {
	return &PlanValidator{}
}

var dangerousCommandSubstrings = []string{"rm -rf", "sudo", "chmod 777"}

// ValidatePlan checks step count, action types, targets, dangerous
// commands, and path traversal in edit targets.
func (v *PlanValidator) ValidatePlan(plan agent.Plan) policy.ValidationResult {
	var warnings, blockers []string

	switch {
	case plan.Len() == 0:
		blockers = append(blockers, "plan has no steps")
	case plan.Len() > MaxPlanSteps:
		blockers = append(blockers, fmt.Sprintf("plan has too many steps (%d), maximum is %d", plan.Len(), MaxPlanSteps))
	}

	for _, step := range plan.Steps {
		if !step.Action.IsValid() {
			blockers = append(blockers, fmt.Sprintf("step %d: invalid action type %q", step.ID, step.Action))
		}
		if step.Target == "" {
			blockers = append(blockers, fmt.Sprintf("step %d: missing target", step.ID))
		}

		if step.Action == agent.ActionCommand {
			lowered := strings.ToLower(step.Target)
			for _, danger := range dangerousCommandSubstrings {
				if strings.Contains(lowered, danger) {
					blockers = append(blockers, fmt.Sprintf("step %d: dangerous command detected", step.ID))
					break
				}
			}
		}

		if step.Action == agent.ActionEdit && strings.Contains(step.Target, "..") {
			blockers = append(blockers, fmt.Sprintf("step %d: path traversal detected in target", step.ID))
		}
	}

	if len(blockers) == 0 && plan.Len() > 5 {
		warnings = append(warnings, "plan has many steps, execution may take longer")
		return policy.ValidationResult{
			Passed:   true,
			Risk:     policy.RiskMedium,
			Warnings: warnings,
		}
	}

	return policy.NewValidationResult(warnings, blockers)
}

var errorOutputPatterns = []*regexp.Regexp{
	regexp.MustCompile(`permission\s+denied`),
	regexp.MustCompile(`access\s+denied`),
	regexp.MustCompile(`not\s+found`),
	regexp.MustCompile(`no\s+such\s+file`),
	regexp.MustCompile(`command\s+not\s+found`),
	regexp.MustCompile(`syntax\s+error`),
	regexp.MustCompile(`traceback`),
	regexp.MustCompile(`exception`),
	regexp.MustCompile(`fatal\s+error`),
}

// maxOutputSize flags runaway output above 1 MB.
const maxOutputSize = 1_000_000

// OutputValidator screens command output for error signatures.
type OutputValidator struct{}

// NewOutputValidator creates an output validator.
func NewOutputValidator() *OutputValidator {
	return &OutputValidator{}
}

// ValidateOutput scans both streams for error patterns and runaway size.
// It returns whether the output looks safe and the issues found.
func (v *OutputValidator) ValidateOutput(stdout, stderr string) (bool, []string) {
	var issues []string

	combined := strings.ToLower(stdout + stderr)
	for _, p := range errorOutputPatterns {
		if p.MatchString(combined) {
			issues = append(issues, fmt.Sprintf("output contains error pattern: %s", p.String()))
		}
	}

	if len(combined) > maxOutputSize {
		issues = append(issues, "output is unusually large (>1MB)")
	}

	return len(issues) == 0, issues
}
