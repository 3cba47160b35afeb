package guardrails

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/policy"
)

func TestValidateTask(t *testing.T) {
	v := NewTaskValidator()

	tests := []struct {
		name       string
		task       string
		wantPassed bool
		wantRisk   policy.RiskLevel
	}{
		{
			name:       "specific task passes",
			task:       "add a retry flag to the fetch command",
			wantPassed: true,
			wantRisk:   policy.RiskLow,
		},
		{
			name:       "vague task blocked",
			task:       "fix bugs",
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name:       "scope expansion blocked",
			task:       "refactor the entire codebase to use generics",
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name:       "unsafe operation blocked",
			task:       "run rm -rf on the build directory",
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name:       "short task warns",
			task:       "update readme now",
			wantPassed: true,
			wantRisk:   policy.RiskLow,
		},
		{
			name:       "very short task warns medium",
			task:       "do something",
			wantPassed: true,
			wantRisk:   policy.RiskMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidateTask(tt.task)
			if got.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (blockers: %v)", got.Passed, tt.wantPassed, got.Blockers)
			}
			if got.Risk != tt.wantRisk {
				t.Errorf("Risk = %v, want %v", got.Risk, tt.wantRisk)
			}
		})
	}
}

func TestValidateTaskLongDescription(t *testing.T) {
	v := NewTaskValidator()

	long := strings.Repeat("word ", 120)
	got := v.ValidateTask(long)
	if !got.Passed {
		t.Errorf("long task should pass, blockers: %v", got.Blockers)
	}
	if len(got.Warnings) == 0 {
		t.Error("long task should carry a warning")
	}
}

func commandStep(id int, target string) agent.PlanStep {
	return agent.PlanStep{
		ID:          id,
		Description: "run a command",
		Action:      agent.ActionCommand,
		Target:      target,
	}
}

func TestValidatePlan(t *testing.T) {
	v := NewPlanValidator()

	tests := []struct {
		name       string
		plan       agent.Plan
		wantPassed bool
		wantRisk   policy.RiskLevel
	}{
		{
			name:       "empty plan blocked",
			plan:       agent.Plan{},
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name: "simple plan passes",
			plan: agent.Plan{Steps: []agent.PlanStep{
				commandStep(1, "pytest tests/"),
			}},
			wantPassed: true,
			wantRisk:   policy.RiskLow,
		},
		{
			name: "dangerous command blocked",
			plan: agent.Plan{Steps: []agent.PlanStep{
				commandStep(1, "echo ok"),
				commandStep(2, "rm -rf /tmp/data"),
			}},
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name: "path traversal blocked",
			plan: agent.Plan{Steps: []agent.PlanStep{
				{ID: 1, Description: "edit", Action: agent.ActionEdit, Target: "../outside.txt", Details: "x"},
			}},
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name: "invalid action type blocked",
			plan: agent.Plan{Steps: []agent.PlanStep{
				{ID: 1, Description: "bad", Action: agent.ActionKind("DELETE"), Target: "x"},
			}},
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
		{
			name: "missing target blocked",
			plan: agent.Plan{Steps: []agent.PlanStep{
				{ID: 1, Description: "bad", Action: agent.ActionCommand},
			}},
			wantPassed: false,
			wantRisk:   policy.RiskCritical,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.ValidatePlan(tt.plan)
			if got.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (blockers: %v)", got.Passed, tt.wantPassed, got.Blockers)
			}
			if got.Risk != tt.wantRisk {
				t.Errorf("Risk = %v, want %v", got.Risk, tt.wantRisk)
			}
		})
	}
}

func TestValidatePlanStepCount(t *testing.T) {
	v := NewPlanValidator()

	var steps []agent.PlanStep
	for i := 1; i <= MaxPlanSteps+1; i++ {
		steps = append(steps, commandStep(i, "echo ok"))
	}

	got := v.ValidatePlan(agent.Plan{Steps: steps})
	if got.Passed {
		t.Error("plan over the step cap should be blocked")
	}

	got = v.ValidatePlan(agent.Plan{Steps: steps[:7]})
	if !got.Passed {
		t.Errorf("seven-step plan should pass, blockers: %v", got.Blockers)
	}
	if got.Risk != policy.RiskMedium {
		t.Errorf("long plan Risk = %v, want %v", got.Risk, policy.RiskMedium)
	}
	if len(got.Warnings) == 0 {
		t.Error("long plan should warn about execution time")
	}
}

func TestValidateOutput(t *testing.T) {
	v := NewOutputValidator()

	tests := []struct {
		name     string
		stdout   string
		stderr   string
		wantSafe bool
	}{
		{
			name:     "clean output",
			stdout:   "3 passed in 0.12s",
			wantSafe: true,
		},
		{
			name:     "traceback in stderr",
			stderr:   "Traceback (most recent call last):",
			wantSafe: false,
		},
		{
			name:     "permission denied",
			stdout:   "bash: /etc/shadow: Permission denied",
			wantSafe: false,
		},
		{
			name:     "command not found",
			stderr:   "make: command not found",
			wantSafe: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, issues := v.ValidateOutput(tt.stdout, tt.stderr)
			if safe != tt.wantSafe {
				t.Errorf("safe = %v, want %v (issues: %v)", safe, tt.wantSafe, issues)
			}
		})
	}
}

func TestValidateOutputSize(t *testing.T) {
	v := NewOutputValidator()

	big := strings.Repeat("x", maxOutputSize+1)
	safe, issues := v.ValidateOutput(big, "")
	if safe {
		t.Error("oversized output should not be safe")
	}
	found := false
	for _, issue := range issues {
		if strings.Contains(issue, "large") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues %v should mention output size", issues)
	}
}

func TestValidatePlanReportsStepID(t *testing.T) {
	v := NewPlanValidator()

	plan := agent.Plan{Steps: []agent.PlanStep{
		commandStep(1, "echo ok"),
		commandStep(7, "sudo reboot"),
	}}

	got := v.ValidatePlan(plan)
	if got.Passed {
		t.Fatal("dangerous plan should be blocked")
	}
	want := fmt.Sprintf("step %d", 7)
	found := false
	for _, b := range got.Blockers {
		if strings.Contains(b, want) {
			found = true
		}
	}
	if !found {
		t.Errorf("blockers %v should name the offending step", got.Blockers)
	}
}
