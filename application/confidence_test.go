package application

import (
	"math"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
)

func TestEvaluate(t *testing.T) {
	eval := NewConfidenceEvaluator()

	success := agent.ExecutionResult{Success: true}
	failure := agent.ExecutionResult{Success: false, Error: "boom"}

	tests := []struct {
		name    string
		history []agent.ExecutionResult
		want    float64
	}{
		{
			name:    "empty history is optimistic",
			history: nil,
			want:    1.0,
		},
		{
			name:    "all successes",
			history: []agent.ExecutionResult{success, success, success},
			want:    1.0,
		},
		{
			name:    "two successes one failure",
			history: []agent.ExecutionResult{success, success, failure},
			want:    (2.0 / 3.0) * 0.9,
		},
		{
			name:    "all failures",
			history: []agent.ExecutionResult{failure, failure},
			want:    0.0,
		},
		{
			name:    "single failure",
			history: []agent.ExecutionResult{failure},
			want:    0.0,
		},
		{
			name:    "failure then recovery keeps the penalty",
			history: []agent.ExecutionResult{failure, success},
			want:    0.5 * 0.9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eval.Evaluate(tt.history)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Evaluate() = %v, outside [0, 1]", got)
			}
		})
	}
}
