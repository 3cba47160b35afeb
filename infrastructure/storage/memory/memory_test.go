package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kitadev/agent-core/domain/agent"
	"github.com/kitadev/agent-core/domain/run"
)

func TestPublishAndLoad(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	rec := run.Record{
		RunID:      "run-1",
		Task:       "fix the bug",
		FinalState: agent.StateCompleted,
		Confidence: 1.0,
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
	if got.Task != rec.Task {
		t.Errorf("Task = %q, want %q", got.Task, rec.Task)
	}
}

func TestPublishRejectsDuplicate(t *testing.T) {
	sink := NewSink()
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
	sink := NewSink()

	_, err := sink.Load(context.Background(), "nope")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("error = %v, want ErrRecordNotFound", err)
	}
}

func TestListSorted(t *testing.T) {
	sink := NewSink()
	ctx := context.Background()

	for _, id := range []string{"run-c", "run-a", "run-b"} {
		if err := sink.Publish(ctx, run.Record{RunID: id}); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := sink.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"run-a", "run-b", "run-c"}
	if len(ids) != len(want) {
		t.Fatalf("List() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
