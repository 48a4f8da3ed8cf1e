package scorer

import (
	"context"

	"curricula/internal/model"
)

const SequenceLengthName = "sequence_length"

// SequenceLength scores examples by token count. It needs no tokenizer
// and no trainer; short sequences come first in a difficulty ordering.
type SequenceLength struct{}

func newSequenceLength(_ map[string]any) (DifficultyScorer, error) {
	return &SequenceLength{}, nil
}

func (s *SequenceLength) Name() string { return SequenceLengthName }

func (s *SequenceLength) Score(_ context.Context, examples []model.Example) ([]float64, error) {
	scores := make([]float64, len(examples))
	for i, ex := range examples {
		scores[i] = float64(len(ex.IDs))
	}
	return scores, nil
}
