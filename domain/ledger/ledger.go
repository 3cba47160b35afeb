package ledger

import (
	"sync"
	"time"

	"github.com/kitadev/agent-core/domain/agent"
)

// Ledger records every state transition and step result of one run, in
// order. It is append-only: entries are never truncated or rewritten.
type Ledger struct {
	runID       string
	mu          sync.RWMutex
	transitions []TransitionRecord
	steps       []StepRecord
}

// New creates a ledger for the given run.
func New(runID string) *Ledger {
	return &Ledger{runID: runID}
}

// RunID returns the associated run ID.
func (l *Ledger) RunID() string {
	return l.runID
}

// RecordTransition appends a transition record. A nil previous state marks
// the initialization record.
func (l *Ledger) RecordTransition(previous *agent.State, next agent.State, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.transitions = append(l.transitions, TransitionRecord{
		ID:        newRecordID(),
		Previous:  previous,
		Next:      next,
		Timestamp: time.Now().UTC(),
		Reason:    reason,
	})
}

// RecordStep appends a step result record.
func (l *Ledger) RecordStep(stepID int, result agent.ExecutionResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.steps = append(l.steps, StepRecord{
		ID:        newRecordID(),
		StepID:    stepID,
		Result:    result,
		Timestamp: time.Now().UTC(),
	})
}

// Transitions returns a copy of all transition records in append order.
func (l *Ledger) Transitions() []TransitionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]TransitionRecord, len(l.transitions))
	copy(out, l.transitions)
	return out
}

// Steps returns a copy of all step records in append order.
func (l *Ledger) Steps() []StepRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]StepRecord, len(l.steps))
	copy(out, l.steps)
	return out
}

// LastTransition returns the most recent transition record, or nil.
func (l *Ledger) LastTransition() *TransitionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.transitions) == 0 {
		return nil
	}
	rec := l.transitions[len(l.transitions)-1]
	return &rec
}

// Count returns the number of transition records.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transitions)
}
