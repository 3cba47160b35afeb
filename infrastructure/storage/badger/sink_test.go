package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/ledger"
	"github.com/kitadev/agent-core/domain/run"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	sink, err := NewSink(Config{InMemory: true, KeyPrefix: "test:"})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := sink.Close(); err != nil {
			t.Errorf("closing sink: %v", err)
		}
	})
	return sink
}

func TestPublishAndLoad(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	prev := agent.StateIdle
	rec := run.Record{
		RunID:      "run-1",
		Task:       "add input validation",
		RepoPath:   "/repos/demo",
		FinalState: agent.StateCompleted,
		Confidence: 1.0,
		Transitions: []ledger.TransitionRecord{
			{ID: "t1", Previous: &prev, Next: agent.StateReceivedTask, Reason: "task received"},
		},
	}

	if err := sink.Publish(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := sink.Load(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.FinalState != agent.StateCompleted {
		t.Errorf("FinalState = %s, want %s", got.FinalState, agent.StateCompleted)
	}
	if len(got.Transitions) != 1 {
		t.Fatalf("got %d transitions, want 1", len(got.Transitions))
	}
	if got.Transitions[0].Previous == nil || *got.Transitions[0].Previous != agent.StateIdle {
		t.Error("transition previous state not round-tripped")
	}
}

func TestPublishRejectsDuplicate(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	rec := run.Record{RunID: "run-1", FinalState: agent.StateStoppedSafe}
	if err := sink.Publish(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := sink.Publish(ctx, rec); err == nil {
		t.Error("second publish of the same run should fail")
	}
}

func TestLoadMissing(t *testing.T) {
	sink := newTestSink(t)

	_, err := sink.Load(context.Background(), "absent")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestList(t *testing.T) {
	sink := newTestSink(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		if err := sink.Publish(ctx, run.Record{RunID: id, FinalState: agent.StateCompleted}); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := sink.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Fatalf("List() = %v, want 2 entries", ids)
	}
	if ids[0] != "run-a" || ids[1] != "run-b" {
		t.Errorf("List() = %v, want [run-a run-b]", ids)
	}
}

func TestPublishCanceledContext(t *testing.T) {
	sink := newTestSink(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sink.Publish(ctx, run.Record{RunID: "run-x"}); err == nil {
		t.Error("publish with canceled context should fail")
	}
}
