// Package curricula is the public facade over the curriculum engine:
// loading curriculum definitions, resolving collators, and running
// difficulty-scoring passes against a persistent store.
package curricula

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"curricula/internal/collator"
	"curricula/internal/curriculum"
	"curricula/internal/model"
	"curricula/internal/pacing"
	"curricula/internal/ranking"
	"curricula/internal/scorer"
	"curricula/internal/storage"
	"curricula/internal/trainer"
)

const defaultDBPath = "curricula.db"

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store  storage.Store
	ranker *ranking.Ranker
}

type ScoreRequest struct {
	Scorer string
	Kwargs map[string]any
	Step   int
}

type ScoreSummary struct {
	RunID      string
	ScorerName string
	Examples   int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return &Client{store: store, ranker: ranking.New(store)}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Reset(ctx context.Context) error {
	resetter, ok := c.store.(storage.Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return resetter.Reset(ctx)
}

// LoadCurriculumFile reads a JSON curriculum definition and validates it.
func LoadCurriculumFile(path string) (*curriculum.Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCurriculum(data)
}

func LoadCurriculum(data []byte) (*curriculum.Curriculum, error) {
	var spec model.CurriculumSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse curriculum: %w", err)
	}
	return curriculum.New(spec)
}

// ActiveObjective resolves the objective unit name active at a step.
func ActiveObjective(cur *curriculum.Curriculum, step int) string {
	return cur.ActiveUnitName(step)
}

// CollatorFor builds the collator for the objective active at a step.
func CollatorFor(cur *curriculum.Curriculum, tok model.Tokenizer, step int) (collator.Collator, error) {
	return collator.Load(cur, tok, step)
}

// Scorers lists the registered difficulty scorer names.
func Scorers() []string {
	return scorer.List()
}

// Pacers lists the registered pacing function names.
func Pacers() []string {
	return pacing.List()
}

// Score builds the requested scorer, scores the examples, and persists
// the run. The trainer may be nil for scorers that declare no
// capabilities.
func (c *Client) Score(ctx context.Context, req ScoreRequest, examples []model.Example, tr *trainer.Trainer) (ScoreSummary, error) {
	sc, err := scorer.Build(req.Scorer, req.Kwargs, tr)
	if err != nil {
		return ScoreSummary{}, err
	}
	run, err := c.ranker.ScoreAndPersist(ctx, sc, req.Kwargs, examples, req.Step)
	if err != nil {
		return ScoreSummary{}, err
	}
	return ScoreSummary{RunID: run.ID, ScorerName: run.ScorerName, Examples: run.Examples}, nil
}

// Runs lists persisted scoring runs.
func (c *Client) Runs(ctx context.Context) ([]model.ScoringRun, error) {
	return c.store.ListScoringRuns(ctx)
}

// Scores returns the persisted score records for a run.
func (c *Client) Scores(ctx context.Context, runID string) ([]model.ScoreRecord, error) {
	records, ok, err := c.store.GetScores(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ranking.ErrUnknownRun, runID)
	}
	return records, nil
}

// Order returns example indices sorted easiest-first for a persisted run.
func (c *Client) Order(ctx context.Context, runID string) ([]int, error) {
	return c.ranker.Order(ctx, runID)
}
