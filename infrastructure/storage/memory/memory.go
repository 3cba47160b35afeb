// Package memory provides an in-memory audit sink for tests and dry runs.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kitadev/agent-core/domain/run"
)

// ErrRecordNotFound is returned when no record exists for a run ID.
var ErrRecordNotFound = errors.New("audit record not found")

// Sink keeps published records in a map. Safe for concurrent use.
type Sink struct {
	mu      sync.RWMutex
	records map[string]run.Record
}

// NewSink creates an empty in-memory sink.
func NewSink() *Sink {
	return &Sink{records: make(map[string]run.Record)}
}

// Publish stores the record. Re-publishing a run ID is rejected.
func (s *Sink) Publish(ctx context.Context, rec run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.RunID]; exists {
		return fmt.Errorf("audit record for run %s already exists", rec.RunID)
	}
	s.records[rec.RunID] = rec
	return nil
}

// Load retrieves a record by run ID.
func (s *Sink) Load(ctx context.Context, runID string) (run.Record, error) {
	if err := ctx.Err(); err != nil {
		return run.Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[runID]
	if !ok {
		return run.Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// List returns all published run IDs in sorted order.
func (s *Sink) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}

var _ run.Sink = (*Sink)(nil)
