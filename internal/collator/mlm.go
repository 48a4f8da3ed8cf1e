package collator

import (
	"math/rand"

	"curricula/internal/model"
	"curricula/internal/tensor"
)

// MLM is the standard masked-language-modeling collator: every eligible
// position is masked independently with the configured probability, then
// the 80/10/10 replace/randomize/keep split is applied.
type MLM struct {
	tok      model.Tokenizer
	maskProb float64
	rng      *rand.Rand
}

// NewMLM builds the collator. A nil rng gets a time-seeded source.
func NewMLM(tok model.Tokenizer, maskProb float64, rng *rand.Rand) *MLM {
	return &MLM{tok: tok, maskProb: maskProb, rng: newRand(rng)}
}

// MaskProbability reports the configured per-position mask probability.
func (c *MLM) MaskProbability() float64 { return c.maskProb }

func (c *MLM) Collate(examples []model.Example) (model.Batch, error) {
	rows, special, err := padRows(examples, c.tok)
	if err != nil {
		return model.Batch{}, err
	}

	inputs, err := tensor.IntFromRows(rows)
	if err != nil {
		return model.Batch{}, err
	}
	labels := inputs.Clone()
	specialMask := tensor.NewInt(inputs.Dim(0), inputs.Dim(1))

	maskID := int64(c.tok.MaskTokenID())
	padID := int64(c.tok.PadTokenID())
	vocab := int64(c.tok.VocabSize())

	for i := range rows {
		inRow := inputs.Row(i)
		labelRow := labels.Row(i)
		for j := range inRow {
			if special[i][j] == 1 {
				specialMask.Set(1, i, j)
			}
			// Probability mass at special and pad positions is zeroed
			// before sampling.
			eligible := special[i][j] == 0 && inRow[j] != padID
			if !eligible || c.rng.Float64() >= c.maskProb {
				labelRow[j] = model.IgnoreIndex
				continue
			}
			switch {
			case c.rng.Float64() < 0.8:
				inRow[j] = maskID
			case c.rng.Float64() < 0.5:
				inRow[j] = c.rng.Int63n(vocab)
			}
		}
	}

	return model.Batch{InputIDs: inputs, SpecialTokensMask: specialMask, Labels: labels}, nil
}
