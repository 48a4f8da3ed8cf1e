package storage

import (
	"context"
	"sort"
	"sync"

	"curricula/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.ScoringRun
	scores      map[string][]model.ScoreRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.ScoringRun)
	s.scores = make(map[string][]model.ScoreRecord)
	return nil
}

func (s *MemoryStore) SaveScoringRun(_ context.Context, run model.ScoringRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetScoringRun(_ context.Context, id string) (model.ScoringRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListScoringRuns(_ context.Context) ([]model.ScoringRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoringRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SaveScores(_ context.Context, runID string, scores []model.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores[runID] = append([]model.ScoreRecord(nil), scores...)
	return nil
}

func (s *MemoryStore) GetScores(_ context.Context, runID string) ([]model.ScoreRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores, ok := s.scores[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.ScoreRecord(nil), scores...), true, nil
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	return s.Init(ctx)
}

var _ Store = (*MemoryStore)(nil)
var _ Resetter = (*MemoryStore)(nil)
