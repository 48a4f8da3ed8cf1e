package collator

import (
	"math"
	"math/rand"

	"curricula/internal/curriculum"
	"curricula/internal/model"
	"curricula/internal/tensor"
)

const (
	defaultLeaveUnmaskedProb = 0.1
	defaultRandomTokenProb   = 0.1
)

// WholeWord masks whole words instead of independent positions: mask
// layouts select word starts from the reference annotations and cover
// every token of each selected word. The unit's knobs control how many
// precomputed layouts to draw from, whether masking happens at all for
// a given example, the replace/randomize/keep split, and whether the
// masked words form one consecutive run.
type WholeWord struct {
	tok  model.Tokenizer
	unit model.ObjectiveUnit
	cur  *curriculum.Curriculum
	step int
	rng  *rand.Rand
}

// NewWholeWord builds the collator for the unit active at step. The
// curriculum reference is used to anneal the leave-unmasked probability
// across the unit's schedule segment. A nil rng gets a time-seeded
// source.
func NewWholeWord(tok model.Tokenizer, unit model.ObjectiveUnit, cur *curriculum.Curriculum, step int, rng *rand.Rand) *WholeWord {
	return &WholeWord{tok: tok, unit: unit, cur: cur, step: step, rng: newRand(rng)}
}

// Unit reports the objective unit the collator was configured from.
func (c *WholeWord) Unit() model.ObjectiveUnit { return c.unit }

type wordSpan struct {
	start, end int // token positions [start, end)
}

func (c *WholeWord) Collate(examples []model.Example) (model.Batch, error) {
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

	leaveProb, randomProb := c.effectiveProbs()
	// first flip: replace with the mask token; second flip: substitute a
	// random token among the remainder.
	firstFlipProb := 1 - leaveProb - randomProb
	secondFlipProb := 0.0
	if leaveProb+randomProb > 0 {
		secondFlipProb = randomProb / (leaveProb + randomProb)
	}

	for i := range rows {
		for j := range rows[i] {
			if special[i][j] == 1 {
				specialMask.Set(1, i, j)
			}
		}

		pattern := c.maskPattern(examples[i], special[i], len(rows[i]))

		inRow := inputs.Row(i)
		labelRow := labels.Row(i)
		for j := range inRow {
			eligible := pattern[j] && special[i][j] == 0 && inRow[j] != padID
			if !eligible {
				labelRow[j] = model.IgnoreIndex
				continue
			}
			switch {
			case c.rng.Float64() < firstFlipProb:
				inRow[j] = maskID
			case c.rng.Float64() < secondFlipProb:
				inRow[j] = c.rng.Int63n(vocab)
			}
		}
	}

	return model.Batch{InputIDs: inputs, SpecialTokensMask: specialMask, Labels: labels}, nil
}

// maskPattern draws one of the unit's precomputed mask layouts for the
// example: a token-level mask covering every token of each selected
// word.
func (c *WholeWord) maskPattern(ex model.Example, special []int, seqLen int) []bool {
	pattern := make([]bool, seqLen)

	if c.unit.ProbabilisticMasking && c.rng.Float64() >= c.maskingProbability() {
		return pattern
	}

	words := maskableWords(ex, special)
	if len(words) == 0 {
		return pattern
	}

	wordsPerPattern := c.unit.MaskPatternSize
	if wordsPerPattern <= 0 {
		wordsPerPattern = int(math.Round(c.unit.MaskProbability * float64(len(words))))
		if wordsPerPattern < 1 {
			wordsPerPattern = 1
		}
	}
	if wordsPerPattern > len(words) {
		wordsPerPattern = len(words)
	}

	numPatterns := c.unit.NumMaskPatterns
	if numPatterns < 1 {
		numPatterns = 1
	}

	layouts := make([][]int, numPatterns)
	for p := range layouts {
		layouts[p] = c.selectWords(len(words), wordsPerPattern)
	}
	chosen := layouts[c.rng.Intn(len(layouts))]

	for _, w := range chosen {
		for j := words[w].start; j < words[w].end; j++ {
			pattern[j] = true
		}
	}
	return pattern
}

// selectWords picks wordsPerPattern indices out of n maskable words:
// a uniformly placed consecutive run when the unit asks for one, a
// random scatter otherwise.
func (c *WholeWord) selectWords(n, wordsPerPattern int) []int {
	if c.unit.ConsecutiveMasking {
		start := 0
		if n > wordsPerPattern {
			start = c.rng.Intn(n - wordsPerPattern + 1)
		}
		out := make([]int, wordsPerPattern)
		for i := range out {
			out[i] = start + i
		}
		return out
	}
	perm := c.rng.Perm(n)
	out := make([]int, wordsPerPattern)
	copy(out, perm[:wordsPerPattern])
	return out
}

func (c *WholeWord) maskingProbability() float64 {
	if c.unit.MaskingProbability > 0 {
		return c.unit.MaskingProbability
	}
	return 1
}

// effectiveProbs resolves the leave-unmasked and random-token
// probabilities for the collator's step, annealing linearly from the
// start value to the steady value across the unit's schedule segment.
func (c *WholeWord) effectiveProbs() (leave, random float64) {
	leave = c.unit.LeaveUnmaskedProb
	if leave == 0 {
		leave = defaultLeaveUnmaskedProb
	}
	random = c.unit.RandomTokenProb
	if random == 0 {
		random = defaultRandomTokenProb
	}
	start := c.unit.LeaveUnmaskedProbStart
	if start == 0 || c.cur == nil {
		return leave, random
	}
	segStart, segEnd, bounded := c.cur.SegmentBounds(c.step)
	if !bounded || segEnd <= segStart {
		return leave, random
	}
	frac := float64(c.step-segStart) / float64(segEnd-segStart)
	return start + (leave-start)*frac, random
}

// maskableWords lists the word spans eligible for masking, in token
// order. With reference annotations present, a word qualifies when its
// start position is flagged maskable; without them every fully
// non-special word qualifies.
func maskableWords(ex model.Example, special []int) []wordSpan {
	n := len(ex.IDs)
	var words []wordSpan
	j := 0
	for j < n {
		if special[j] == 1 {
			j++
			continue
		}
		end := j + 1
		if j < len(ex.WordIDs) {
			for end < n && end < len(ex.WordIDs) && ex.WordIDs[end] == ex.WordIDs[j] && special[end] == 0 {
				end++
			}
		}
		maskable := true
		if ex.MaskableStarts != nil {
			maskable = j < len(ex.MaskableStarts) && ex.MaskableStarts[j]
		}
		if maskable {
			words = append(words, wordSpan{start: j, end: end})
		}
		j = end
	}
	return words
}

var _ Collator = (*WholeWord)(nil)
