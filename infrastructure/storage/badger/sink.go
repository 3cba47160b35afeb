// Package badger provides a BadgerDB-backed audit sink. Records are
// append-only: one key per run, written once at run end.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/kitadev/agent-core/domain/run"
)

// ErrRecordNotFound is returned when no record exists for a run ID.
var ErrRecordNotFound = errors.New("audit record not found")

// Config configures the sink's database.
type Config struct {
	// Dir is the directory to store data in.
	Dir string

	// InMemory uses in-memory storage (useful for testing).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// Sink persists terminal run records to BadgerDB.
type Sink struct {
	db        *badger.DB
	keyPrefix string
}

// NewSink opens the database and returns a sink.
func NewSink(cfg Config) (*Sink, error) {
	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	return &Sink{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Key format: prefix:audit:runID
func (s *Sink) auditKey(runID string) []byte {
	return []byte(s.keyPrefix + "audit:" + runID)
}

// Publish persists the terminal record. A run's record is written once;
// re-publishing the same run ID is rejected to keep the trail append-only.
func (s *Sink) Publish(ctx context.Context, rec run.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}

	key := s.auditKey(rec.RunID)
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("audit record for run %s already exists", rec.RunID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}

// Load retrieves a record by run ID.
func (s *Sink) Load(ctx context.Context, runID string) (run.Record, error) {
	if err := ctx.Err(); err != nil {
		return run.Record{}, err
	}

	var rec run.Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.auditKey(runID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return run.Record{}, err
	}
	return rec, nil
}

// List returns the run IDs of all published records.
func (s *Sink) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(s.keyPrefix + "audit:")
	var ids []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, string(prefix)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Sink) Close() error {
	return s.db.Close()
}

var _ run.Sink = (*Sink)(nil)
