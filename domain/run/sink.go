// Package run provides the domain interface for audit persistence.
package run

import (
	"context"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/ledger"
)

// Record is the terminal snapshot of one run handed to the audit sink.
type Record struct {
	RunID       string                    `json:"run_id"`
	Task        string                    `json:"task"`
	RepoPath    string                    `json:"repo_path"`
	FinalState  agent.State               `json:"final_state"`
	Confidence  float64                   `json:"confidence"`
	Transitions []ledger.TransitionRecord `json:"transitions"`
	Steps       []ledger.StepRecord       `json:"steps"`
}

// Sink consumes run audit records for external reporting. Implementations
// are read-only consumers of core state and must never mutate it.
type Sink interface {
	// Publish persists the terminal record of a run.
	Publish(ctx context.Context, rec Record) error

	// Load retrieves a previously published record by run ID.
	Load(ctx context.Context, runID string) (Record, error)

	// List returns the IDs of all published runs.
	List(ctx context.Context) ([]string, error)

	// Close releases sink resources.
	Close() error
}
