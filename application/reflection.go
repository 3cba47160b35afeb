package application

import (
	"fmt"

	"github.com/kitadev/agent-core/domain/agent"
)

// Decision is the outcome of reflecting on an execution result.
type Decision string

const (
	DecisionContinue Decision = "CONTINUE"
	DecisionRetry    Decision = "RETRY"
	DecisionStop     Decision = "STOP"
)

// ReflectionDecision pairs a decision with its reason.
type ReflectionDecision struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`
}

// DefaultMaxRetries bounds cumulative failures per run.
const DefaultMaxRetries = 3

// ReflectionEngine decides whether a failed step is worth retrying. The
// retry counter is cumulative across the whole run and never resets: it
// counts failures, not consecutive failures of one step.
type ReflectionEngine struct {
	maxRetries int
	retries    int
}

// NewReflectionEngine creates an engine with the given retry bound. A
// non-positive bound falls back to the default.
func NewReflectionEngine(maxRetries int) *ReflectionEngine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &ReflectionEngine{maxRetries: maxRetries}
}

// Reflect analyzes one execution result. Success leaves the counter
// untouched; each failure increments it, and crossing the bound stops
// the run.
func (e *ReflectionEngine) Reflect(result agent.ExecutionResult) ReflectionDecision {
	if result.Success {
		return ReflectionDecision{Decision: DecisionContinue, Reason: "step succeeded"}
	}

	e.retries++

	if e.retries > e.maxRetries {
		return ReflectionDecision{
			Decision: DecisionStop,
			Reason:   fmt.Sprintf("max retries (%d) exceeded", e.maxRetries),
		}
	}

	return ReflectionDecision{
		Decision: DecisionRetry,
		Reason:   fmt.Sprintf("step failed with error: %s, retrying (%d/%d)", result.Error, e.retries, e.maxRetries),
	}
}

// Retries returns the cumulative failure count so far.
func (e *ReflectionEngine) Retries() int {
	return e.retries
}
