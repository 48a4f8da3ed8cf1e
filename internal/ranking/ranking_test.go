package ranking

import (
	"context"
	"errors"
	"math"
	"testing"

	"curricula/internal/model"
	"curricula/internal/scorer"
	"curricula/internal/storage"
)

func TestOrderAscending(t *testing.T) {
	got := Order([]float64{3, 1, 2})
	want := []int{1, 2, 0}
	if len(got) != len(want) {
		t.Fatalf("length: got=%d want=%d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d]: got=%d want=%d", i, got[i], want[i])
		}
	}
}

func TestOrderNaNLast(t *testing.T) {
	got := Order([]float64{math.NaN(), 2, math.NaN(), 1})
	if got[0] != 3 || got[1] != 1 {
		t.Fatalf("finite scores must come first: got=%v", got)
	}
	if got[2] != 0 || got[3] != 2 {
		t.Fatalf("NaN scores must keep their relative order at the end: got=%v", got)
	}
}

func TestOrderStableOnTies(t *testing.T) {
	got := Order([]float64{1, 1, 1})
	for i := range got {
		if got[i] != i {
			t.Fatalf("tie order not stable: got=%v", got)
		}
	}
}

func TestScoreAndPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sc, err := scorer.Build(scorer.SequenceLengthName, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	examples := []model.Example{
		{IDs: []int64{1, 2, 3, 4, 5}},
		{IDs: []int64{1, 2}},
		{IDs: []int64{1, 2, 3}},
	}

	ranker := New(store)
	run, err := ranker.ScoreAndPersist(ctx, sc, nil, examples, 100)
	if err != nil {
		t.Fatalf("ScoreAndPersist failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("run ID must be assigned")
	}
	if run.ScorerName != scorer.SequenceLengthName {
		t.Fatalf("scorer name: got=%q want=%q", run.ScorerName, scorer.SequenceLengthName)
	}
	if run.Examples != len(examples) {
		t.Fatalf("examples: got=%d want=%d", run.Examples, len(examples))
	}

	stored, ok, err := store.GetScoringRun(ctx, run.ID)
	if err != nil || !ok {
		t.Fatalf("GetScoringRun: ok=%v err=%v", ok, err)
	}
	if stored.Step != 100 {
		t.Fatalf("step: got=%d want=100", stored.Step)
	}

	order, err := ranker.Order(ctx, run.ID)
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	// Sequence length scores: 5, 2, 3 -> easiest first is 1, 2, 0.
	want := []int{1, 2, 0}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order[%d]: got=%d want=%d", i, order[i], want[i])
		}
	}
}

func TestOrderUnknownRun(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	if _, err := New(store).Order(ctx, "absent"); !errors.Is(err, ErrUnknownRun) {
		t.Fatalf("expected ErrUnknownRun, got %v", err)
	}
}

func TestScoreAndPersistDistinctRunIDs(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	sc, err := scorer.Build(scorer.SequenceLengthName, nil, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	examples := []model.Example{{IDs: []int64{1}}}
	ranker := New(store)
	a, err := ranker.ScoreAndPersist(ctx, sc, nil, examples, 0)
	if err != nil {
		t.Fatalf("ScoreAndPersist failed: %v", err)
	}
	b, err := ranker.ScoreAndPersist(ctx, sc, nil, examples, 0)
	if err != nil {
		t.Fatalf("ScoreAndPersist failed: %v", err)
	}
	if a.ID == b.ID {
		t.Fatalf("run IDs must be unique, both %q", a.ID)
	}
}
