package application

import "github.com/kitadev/agent-core/domain/agent"

// ConfidenceEvaluator scores a run history into a trust scalar in [0, 1].
// The formula is fixed for compatibility with release-gate thresholds:
// empty history scores 1.0, otherwise the success rate takes a flat 0.9
// penalty once any failure occurred.
type ConfidenceEvaluator struct{}

// NewConfidenceEvaluator creates an evaluator.
func NewConfidenceEvaluator() *ConfidenceEvaluator {
	return &ConfidenceEvaluator{}
}

// Evaluate scores the ordered execution history.
func (e *ConfidenceEvaluator) Evaluate(history []agent.ExecutionResult) float64 {
	if len(history) == 0 {
		return 1.0
	}

	total := len(history)
	failed := 0
	for _, r := range history {
		if !r.Success {
			failed++
		}
	}

	score := float64(total-failed) / float64(total)
	if failed > 0 {
		score *= 0.9
	}

	return clamp(score, 0.0, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
