//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "curricula.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return store
}

func TestSQLiteStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := newTestRun("run-1")
	if err := store.SaveScoringRun(ctx, run); err != nil {
		t.Fatalf("SaveScoringRun failed: %v", err)
	}

	got, ok, err := store.GetScoringRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetScoringRun failed: %v", err)
	}
	if !ok {
		t.Fatal("GetScoringRun: run not found")
	}
	if got.ScorerName != run.ScorerName || got.CreatedAt != run.CreatedAt {
		t.Fatalf("round trip mismatch: got=%+v want=%+v", got, run)
	}
}

func TestSQLiteStoreSaveRunOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := newTestRun("run-1")
	if err := store.SaveScoringRun(ctx, run); err != nil {
		t.Fatalf("SaveScoringRun failed: %v", err)
	}
	run.ScorerName = "ngram_perplexity"
	if err := store.SaveScoringRun(ctx, run); err != nil {
		t.Fatalf("SaveScoringRun (overwrite) failed: %v", err)
	}

	got, _, err := store.GetScoringRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetScoringRun failed: %v", err)
	}
	if got.ScorerName != "ngram_perplexity" {
		t.Fatalf("overwrite lost: got=%q want=%q", got.ScorerName, "ngram_perplexity")
	}
}

func TestSQLiteStoreScoresRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	scores := newTestScores("run-1")
	if err := store.SaveScores(ctx, "run-1", scores); err != nil {
		t.Fatalf("SaveScores failed: %v", err)
	}

	got, ok, err := store.GetScores(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetScores failed: %v", err)
	}
	if !ok {
		t.Fatal("GetScores: scores not found")
	}
	if len(got) != len(scores) {
		t.Fatalf("score count: got=%d want=%d", len(got), len(scores))
	}
	if got[1].Score != scores[1].Score {
		t.Fatalf("score[1]: got=%v want=%v", got[1].Score, scores[1].Score)
	}
}

func TestSQLiteStoreListRunsSorted(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	for _, id := range []string{"run-b", "run-a"} {
		if err := store.SaveScoringRun(ctx, newTestRun(id)); err != nil {
			t.Fatalf("SaveScoringRun %s failed: %v", id, err)
		}
	}

	runs, err := store.ListScoringRuns(ctx)
	if err != nil {
		t.Fatalf("ListScoringRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "curricula.db"))
	if _, _, err := store.GetScoringRun(context.Background(), "run-1"); err == nil {
		t.Fatal("expected error before Init")
	}
}
