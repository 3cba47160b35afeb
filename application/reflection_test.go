package application

import (
	"strings"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
)

func TestReflectSuccess(t *testing.T) {
	engine := NewReflectionEngine(3)

	decision := engine.Reflect(agent.ExecutionResult{Success: true, Output: "ok"})
	if decision.Decision != DecisionContinue {
		t.Errorf("Decision = %s, want %s", decision.Decision, DecisionContinue)
	}
	if engine.Retries() != 0 {
		t.Errorf("Retries() = %d, want 0 after success", engine.Retries())
	}
}

func TestReflectRetryThenStop(t *testing.T) {
	engine := NewReflectionEngine(1)
	failure := agent.ExecutionResult{Success: false, Error: "exit status 1"}

	first := engine.Reflect(failure)
	if first.Decision != DecisionRetry {
		t.Fatalf("first failure decision = %s, want %s", first.Decision, DecisionRetry)
	}
	if !strings.Contains(first.Reason, "exit status 1") {
		t.Errorf("retry reason %q should include the failure error", first.Reason)
	}
	if !strings.Contains(first.Reason, "1/1") {
		t.Errorf("retry reason %q should include the attempt count", first.Reason)
	}

	second := engine.Reflect(failure)
	if second.Decision != DecisionStop {
		t.Fatalf("second failure decision = %s, want %s", second.Decision, DecisionStop)
	}
	if !strings.Contains(second.Reason, "exceeded") {
		t.Errorf("stop reason %q should state the limit was exceeded", second.Reason)
	}
}

func TestReflectCounterNeverResets(t *testing.T) {
	engine := NewReflectionEngine(2)
	failure := agent.ExecutionResult{Success: false, Error: "boom"}
	success := agent.ExecutionResult{Success: true}

	engine.Reflect(failure)
	if d := engine.Reflect(success); d.Decision != DecisionContinue {
		t.Fatalf("success decision = %s, want %s", d.Decision, DecisionContinue)
	}
	if engine.Retries() != 1 {
		t.Errorf("Retries() = %d after an interleaved success, want 1", engine.Retries())
	}

	// The counter is cumulative across the run: one more failure reaches
	// the bound, the next stops.
	engine.Reflect(failure)
	if d := engine.Reflect(failure); d.Decision != DecisionStop {
		t.Errorf("third cumulative failure decision = %s, want %s", d.Decision, DecisionStop)
	}
}

func TestReflectDefaultBound(t *testing.T) {
	engine := NewReflectionEngine(0)
	failure := agent.ExecutionResult{Success: false, Error: "x"}

	for i := 0; i < DefaultMaxRetries; i++ {
		if d := engine.Reflect(failure); d.Decision != DecisionRetry {
			t.Fatalf("failure %d decision = %s, want %s", i+1, d.Decision, DecisionRetry)
		}
	}
	if d := engine.Reflect(failure); d.Decision != DecisionStop {
		t.Errorf("failure beyond default bound = %s, want %s", d.Decision, DecisionStop)
	}
}
