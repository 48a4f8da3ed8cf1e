// Package collator turns raw examples into model-ready masked batches
// and dispatches the collation strategy for the objective active at a
// training step.
package collator

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"curricula/internal/curriculum"
	"curricula/internal/model"
	"curricula/internal/tensor"
)

var (
	// ErrUnsupportedObjective is returned when the resolved objective has
	// no collation strategy. Fatal: training setup cannot proceed.
	ErrUnsupportedObjective = errors.New("unsupported objective")

	// ErrMissingMaskToken is returned when a masked-LM objective is
	// requested but the tokenizer has no mask token. Raised before any
	// batch is processed.
	ErrMissingMaskToken = errors.New("tokenizer has no mask token")

	// ErrUnimplementedCollator signals an objective whose collator is
	// declared in the taxonomy but not built. No shipped objective
	// returns it; it is kept because callers match on the full error
	// surface.
	ErrUnimplementedCollator = errors.New("collator not implemented")
)

// Collator transforms raw examples into one masked batch.
type Collator interface {
	Collate(examples []model.Example) (model.Batch, error)
}

// Load resolves the objective active at step and constructs the
// matching collation strategy. "mlm" yields the standard masked-LM
// collator configured with the unit's mask probability; "pos" yields the
// whole-word-masking collator configured with the full unit plus the
// curriculum itself. Any other resolved name fails with
// ErrUnsupportedObjective.
func Load(cur *curriculum.Curriculum, tok model.Tokenizer, step int) (Collator, error) {
	return loadWithRand(cur, tok, step, nil)
}

// LoadSeeded is Load with a deterministic rng, for reproducible batches.
func LoadSeeded(cur *curriculum.Curriculum, tok model.Tokenizer, step int, seed int64) (Collator, error) {
	return loadWithRand(cur, tok, step, rand.New(rand.NewSource(seed)))
}

func loadWithRand(cur *curriculum.Curriculum, tok model.Tokenizer, step int, rng *rand.Rand) (Collator, error) {
	name := cur.ActiveUnitName(step)
	log.Printf("objective: loading collator %q for step %d", name, step)

	if tok.MaskTokenID() < 0 {
		return nil, fmt.Errorf("%w: objective %s", ErrMissingMaskToken, name)
	}

	unit, ok := cur.Unit(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedObjective, name)
	}

	switch name {
	case "mlm":
		return NewMLM(tok, unit.Spec.MaskProbability, rng), nil
	case "pos":
		return NewWholeWord(tok, unit.Spec, cur, step, rng), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedObjective, name)
	}
}

func newRand(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// PadBatch collates examples into an unmasked batch: padded input ids
// plus the special-tokens mask, no labels. Scorers that feed the model
// directly use this instead of a masking collator.
func PadBatch(examples []model.Example, tok model.Tokenizer) (model.Batch, error) {
	rows, special, err := padRows(examples, tok)
	if err != nil {
		return model.Batch{}, err
	}
	inputs, err := tensor.IntFromRows(rows)
	if err != nil {
		return model.Batch{}, err
	}
	specialMask := tensor.NewInt(inputs.Dim(0), inputs.Dim(1))
	for i := range special {
		for j, bit := range special[i] {
			specialMask.Set(int64(bit), i, j)
		}
	}
	return model.Batch{InputIDs: inputs, SpecialTokensMask: specialMask}, nil
}

// padRows right-pads every example to the batch's longest sequence and
// returns the padded id rows together with the special-tokens mask. Pad
// positions are always marked special.
func padRows(examples []model.Example, tok model.Tokenizer) ([][]int64, [][]int, error) {
	if len(examples) == 0 {
		return nil, nil, fmt.Errorf("empty batch")
	}
	maxLen := 0
	for _, ex := range examples {
		if len(ex.IDs) == 0 {
			return nil, nil, fmt.Errorf("example with no tokens")
		}
		if len(ex.IDs) > maxLen {
			maxLen = len(ex.IDs)
		}
	}
	padID := int64(tok.PadTokenID())
	rows := make([][]int64, len(examples))
	special := make([][]int, len(examples))
	for i, ex := range examples {
		row := make([]int64, maxLen)
		copy(row, ex.IDs)
		for j := len(ex.IDs); j < maxLen; j++ {
			row[j] = padID
		}
		mask := tok.SpecialTokensMask(row, true)
		for j := len(ex.IDs); j < maxLen; j++ {
			mask[j] = 1
		}
		rows[i] = row
		special[i] = mask
	}
	return rows, special, nil
}
