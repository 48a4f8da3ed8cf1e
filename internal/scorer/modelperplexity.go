package scorer

import (
	"context"
	"fmt"

	"curricula/internal/collator"
	"curricula/internal/inference"
	"curricula/internal/model"
	"curricula/internal/trainer"
)

const ModelPerplexityName = "model_perplexity"

// ModelPerplexity is the active-learning scorer: it ranks examples by
// pseudo-perplexity under the model currently being trained, so the
// ordering tracks what the live model still finds hard. It consumes
// both the trainer handle and the tokenizer.
type ModelPerplexity struct {
	batchSize int
	chunkSize int

	trainer   *trainer.Trainer
	tokenizer model.FastTokenizer
}

func newModelPerplexity(kwargs map[string]any) (DifficultyScorer, error) {
	batchSize, err := intKwarg(kwargs, "batch_size", 8)
	if err != nil {
		return nil, err
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("batch_size must be >= 1, got %d", batchSize)
	}
	chunkSize, err := intKwarg(kwargs, "chunk_size", 0)
	if err != nil {
		return nil, err
	}
	return &ModelPerplexity{batchSize: batchSize, chunkSize: chunkSize}, nil
}

func (s *ModelPerplexity) Name() string { return ModelPerplexityName }

func (s *ModelPerplexity) SetTrainer(tr *trainer.Trainer) { s.trainer = tr }

func (s *ModelPerplexity) SetTokenizer(tok model.FastTokenizer) { s.tokenizer = tok }

func (s *ModelPerplexity) Score(ctx context.Context, examples []model.Example) ([]float64, error) {
	if s.trainer == nil || s.tokenizer == nil {
		return nil, fmt.Errorf("model perplexity scorer used before injection")
	}

	scores := make([]float64, 0, len(examples))
	for start := 0; start < len(examples); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + s.batchSize
		if end > len(examples) {
			end = len(examples)
		}
		batch, err := collator.PadBatch(examples[start:end], s.tokenizer)
		if err != nil {
			return nil, fmt.Errorf("collate scoring batch: %w", err)
		}
		perplexities, err := inference.ComputePerplexityWithOptions(batch, s.tokenizer, s.trainer, inference.Options{ChunkSize: s.chunkSize})
		if err != nil {
			return nil, err
		}
		scores = append(scores, perplexities...)
	}
	return scores, nil
}
