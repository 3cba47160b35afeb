package agent

// ExecutionResult is the outcome of executing exactly one plan step.
// Results are appended to the run history in order and never mutated
// after append.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
}

// History is the ordered, append-only record of step results for one run.
// It is owned by a single Controller and is not shared across runs, so it
// needs no locking.
type History struct {
	results []ExecutionResult
}

// Append adds a result to the history.
func (h *History) Append(r ExecutionResult) {
	h.results = append(h.results, r)
}

// Results returns a copy of the recorded results in execution order.
func (h *History) Results() []ExecutionResult {
	out := make([]ExecutionResult, len(h.results))
	copy(out, h.results)
	return out
}

// Len returns the number of recorded results.
func (h *History) Len() int {
	return len(h.results)
}

// Failed returns the number of failed results.
func (h *History) Failed() int {
	n := 0
	for _, r := range h.results {
		if !r.Success {
			n++
		}
	}
	return n
}
