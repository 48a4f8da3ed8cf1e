package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"curricula/internal/model"
	"curricula/internal/scorer"
	"curricula/internal/storage"
)

var ErrUnknownRun = errors.New("unknown scoring run")

// Ranker scores a dataset with a difficulty scorer, persists the result,
// and produces curriculum orderings from persisted runs.
type Ranker struct {
	store storage.Store
}

func New(store storage.Store) *Ranker {
	return &Ranker{store: store}
}

// ScoreAndPersist runs the scorer over the examples and stores the run
// together with one score record per example. The run ID is generated
// here so callers can retrieve the ordering later.
func (r *Ranker) ScoreAndPersist(ctx context.Context, sc scorer.DifficultyScorer, kwargs map[string]any, examples []model.Example, step int) (model.ScoringRun, error) {
	scores, err := sc.Score(ctx, examples)
	if err != nil {
		return model.ScoringRun{}, fmt.Errorf("score dataset: %w", err)
	}
	if len(scores) != len(examples) {
		return model.ScoringRun{}, fmt.Errorf("scorer %s returned %d scores for %d examples", sc.Name(), len(scores), len(examples))
	}

	run := model.ScoringRun{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:         uuid.NewString(),
		ScorerName: sc.Name(),
		Kwargs:     kwargs,
		Examples:   len(examples),
		Step:       step,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.store.SaveScoringRun(ctx, run); err != nil {
		return model.ScoringRun{}, fmt.Errorf("save scoring run: %w", err)
	}

	records := make([]model.ScoreRecord, len(scores))
	for i, s := range scores {
		records[i] = model.ScoreRecord{
			VersionedRecord: run.VersionedRecord,
			RunID:           run.ID,
			ExampleIndex:    i,
			Score:           s,
		}
	}
	if err := r.store.SaveScores(ctx, run.ID, records); err != nil {
		return model.ScoringRun{}, fmt.Errorf("save scores: %w", err)
	}
	return run, nil
}

// Order returns example indices sorted easiest-first for a persisted run.
func (r *Ranker) Order(ctx context.Context, runID string) ([]int, error) {
	records, ok, err := r.store.GetScores(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}

	scores := make([]float64, len(records))
	indices := make([]int, len(records))
	for i, rec := range records {
		scores[i] = rec.Score
		indices[i] = rec.ExampleIndex
	}
	order := Order(scores)
	out := make([]int, len(order))
	for i, j := range order {
		out[i] = indices[j]
	}
	return out, nil
}

// Order sorts positions ascending by score. NaN scores sort last, after
// every finite score, so unscoreable examples surface at the hard end of
// the curriculum. The sort is stable over equal scores.
func Order(scores []float64) []int {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		sa, sb := scores[indices[a]], scores[indices[b]]
		if math.IsNaN(sa) {
			return false
		}
		if math.IsNaN(sb) {
			return true
		}
		return sa < sb
	})
	return indices
}
