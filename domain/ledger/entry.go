// Package ledger provides the append-only audit trail for a run.
package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/kitadev/agent-core/domain/agent"
)

// TransitionRecord captures one state transition. Records are immutable
// once appended; the ordered sequence is the audit trail for a run.
type TransitionRecord struct {
	ID string `json:"id"`

	// Previous is nil for the initialization record only.
	Previous *agent.State `json:"previous_state"`

	Next      agent.State `json:"next_state"`
	Timestamp time.Time   `json:"timestamp"`
	Reason    string      `json:"reason"`
}

// StepRecord captures the result of one executed plan step.
type StepRecord struct {
	ID        string                `json:"id"`
	StepID    int                   `json:"step_id"`
	Result    agent.ExecutionResult `json:"result"`
	Timestamp time.Time             `json:"timestamp"`
}

func newRecordID() string {
	return uuid.NewString()
}
