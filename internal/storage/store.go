package storage

import (
	"context"

	"curricula/internal/model"
)

// Store persists difficulty-scoring runs and their per-example scores
// so curriculum ordering does not require re-scoring the dataset.
type Store interface {
	Init(ctx context.Context) error
	SaveScoringRun(ctx context.Context, run model.ScoringRun) error
	GetScoringRun(ctx context.Context, id string) (model.ScoringRun, bool, error)
	ListScoringRuns(ctx context.Context) ([]model.ScoringRun, error)
	SaveScores(ctx context.Context, runID string, scores []model.ScoreRecord) error
	GetScores(ctx context.Context, runID string) ([]model.ScoreRecord, bool, error)
}

// Resetter is implemented by stores that can drop all persisted state.
type Resetter interface {
	Reset(ctx context.Context) error
}
