// Package inference computes model-based pseudo-perplexity: every
// non-special token position is masked independently and scored in its
// own forward-pass variant.
package inference

import (
	"fmt"
	"math"

	"curricula/internal/collator"
	"curricula/internal/curriculum"
	"curricula/internal/model"
	"curricula/internal/tensor"
	"curricula/internal/trainer"
)

// DefaultChunkSize bounds how many masked variants go through the model
// per forward pass. The variant blowup is O(L) per example, so this is
// the estimator's peak-memory knob.
const DefaultChunkSize = 128

// Options tunes ComputePerplexity. The zero value uses DefaultChunkSize.
type Options struct {
	ChunkSize int
}

// ComputePerplexity returns one pseudo-perplexity per example in the
// batch. For each example of length L it scores L variants, variant i
// masking only position i; the variant's label carries the original id
// at i and the ignore sentinel elsewhere, with special-token positions
// never scored. Per-variant losses come from the mlm unit's unreduced
// loss routine, are summed per variant, averaged over L per example and
// exponentiated. An example whose positions are all special yields NaN.
func ComputePerplexity(batch model.Batch, tok model.Tokenizer, tr *trainer.Trainer) ([]float64, error) {
	return ComputePerplexityWithOptions(batch, tok, tr, Options{})
}

func ComputePerplexityWithOptions(batch model.Batch, tok model.Tokenizer, tr *trainer.Trainer, opts Options) ([]float64, error) {
	maskID := tok.MaskTokenID()
	if maskID < 0 {
		return nil, fmt.Errorf("%w: perplexity requires masked scoring", collator.ErrMissingMaskToken)
	}
	if batch.InputIDs == nil || batch.SpecialTokensMask == nil {
		return nil, fmt.Errorf("batch must carry input_ids and special_tokens_mask")
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	b, l := batch.InputIDs.Dim(0), batch.InputIDs.Dim(1)
	mlmUnit := tr.ObjectiveCurriculum.MustUnit(curriculum.FallbackUnitName)

	// One scalar loss per masked variant; variant index v = example*L + position.
	variantLoss := make([]float64, b*l)
	for chunkStart := 0; chunkStart < b*l; chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > b*l {
			chunkEnd = b * l
		}
		n := chunkEnd - chunkStart

		inputs := tensor.NewInt(n, l)
		labels := tensor.NewInt(n, l).Fill(model.IgnoreIndex)
		for v := chunkStart; v < chunkEnd; v++ {
			fillVariant(batch, int64(maskID), v/l, v%l, inputs.Row(v-chunkStart), labels.Row(v-chunkStart))
		}

		logits, err := tr.Model.Forward(inputs)
		if err != nil {
			return nil, fmt.Errorf("forward pass: %w", err)
		}
		loss, err := mlmUnit.ComputeLoss(logits, labels, curriculum.LossOptions{Reduction: curriculum.ReductionNone})
		if err != nil {
			return nil, fmt.Errorf("mlm loss: %w", err)
		}
		// At most one position per variant is scored; the sum isolates it.
		perVariant := loss.SumLastDim()
		copy(variantLoss[chunkStart:chunkEnd], perVariant.Data)
	}

	perplexities := make([]float64, b)
	for i := 0; i < b; i++ {
		scoreable := 0
		sum := 0.0
		for j := 0; j < l; j++ {
			if batch.SpecialTokensMask.At(i, j) == 0 {
				scoreable++
			}
			sum += variantLoss[i*l+j]
		}
		if scoreable == 0 {
			// All-special sequences have no defined perplexity; NaN is
			// the sentinel rather than a silent exp(0).
			perplexities[i] = math.NaN()
			continue
		}
		perplexities[i] = math.Exp(sum / float64(l))
	}
	return perplexities, nil
}

// fillVariant writes the masked variant for (example, position) into the
// provided rows: the input masks only that position, and the label
// scores only that position unless it is special.
func fillVariant(batch model.Batch, maskID int64, example, position int, in, lab []int64) {
	copy(in, batch.InputIDs.Row(example))
	in[position] = maskID
	if batch.SpecialTokensMask.At(example, position) == 0 {
		lab[position] = batch.InputIDs.At(example, position)
	}
}
