// Package scorer ranks training examples by difficulty for curriculum
// ordering. Scorers are pluggable strategies resolved through a static
// registry; some depend only on the dataset, others on the tokenizer or
// the live trainer.
package scorer

import (
	"context"
	"fmt"

	"curricula/internal/model"
	"curricula/internal/trainer"
)

// DifficultyScorer assigns one difficulty score per example. Higher
// means harder.
type DifficultyScorer interface {
	Name() string
	Score(ctx context.Context, examples []model.Example) ([]float64, error)
}

// TrainerConsumer marks scorers that need the live trainer handle, e.g.
// active-learning scorers that query the model being trained. The
// handle is non-owning: scorers never tear the trainer down and must
// not extend its lifetime.
type TrainerConsumer interface {
	SetTrainer(tr *trainer.Trainer)
}

// TokenizerConsumer marks scorers that need the training tokenizer. The
// tokenizer must be offset-capable; that was validated before the
// trainer was built, so a violation here is an internal invariant
// breach, not a user error.
type TokenizerConsumer interface {
	SetTokenizer(tok model.FastTokenizer)
}

// Build constructs the named scorer from its keyword arguments, then
// injects the capabilities the instance declares. The returned scorer
// is fully wired; callers need no further setup.
func Build(name string, kwargs map[string]any, tr *trainer.Trainer) (DifficultyScorer, error) {
	ctor, ok := lookupConstructor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScorer, name)
	}
	s, err := ctor(kwargs)
	if err != nil {
		return nil, fmt.Errorf("construct scorer %s: %w", name, err)
	}

	if consumer, ok := s.(TrainerConsumer); ok {
		if tr == nil {
			return nil, fmt.Errorf("scorer %s requires a trainer", name)
		}
		consumer.SetTrainer(tr)
	}
	if consumer, ok := s.(TokenizerConsumer); ok {
		if tr == nil {
			return nil, fmt.Errorf("scorer %s requires a trainer-held tokenizer", name)
		}
		fast, ok := tr.Tokenizer.(model.FastTokenizer)
		if !ok {
			panic(fmt.Sprintf("scorer %s requires an offset-capable tokenizer; trainer carries %T", name, tr.Tokenizer))
		}
		consumer.SetTokenizer(fast)
	}
	return s, nil
}

// kwarg helpers: kwargs arrive from decoded configuration, so numbers
// may be float64 or int.

func intKwarg(kwargs map[string]any, key string, fallback int) (int, error) {
	raw, ok := kwargs[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("kwarg %s: expected number, got %T", key, raw)
	}
}

func floatKwarg(kwargs map[string]any, key string, fallback float64) (float64, error) {
	raw, ok := kwargs[key]
	if !ok {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("kwarg %s: expected number, got %T", key, raw)
	}
}
