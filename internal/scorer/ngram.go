package scorer

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"curricula/internal/model"
)

const NGramPerplexityName = "ngram_perplexity"

// NGramPerplexity ranks examples by their perplexity under an add-k
// smoothed n-gram language model fit on the dataset itself. It consumes
// the training tokenizer (to skip special tokens and size the smoothing
// denominator) but never touches the trainer.
type NGramPerplexity struct {
	ngramSize int
	smoothing float64

	tokenizer model.FastTokenizer
}

func newNGramPerplexity(kwargs map[string]any) (DifficultyScorer, error) {
	ngramSize, err := intKwarg(kwargs, "ngram_size", 2)
	if err != nil {
		return nil, err
	}
	if ngramSize < 1 {
		return nil, fmt.Errorf("ngram_size must be >= 1, got %d", ngramSize)
	}
	smoothing, err := floatKwarg(kwargs, "smoothing", 1.0)
	if err != nil {
		return nil, err
	}
	if smoothing <= 0 {
		return nil, fmt.Errorf("smoothing must be > 0, got %f", smoothing)
	}
	return &NGramPerplexity{ngramSize: ngramSize, smoothing: smoothing}, nil
}

func (s *NGramPerplexity) Name() string { return NGramPerplexityName }

func (s *NGramPerplexity) SetTokenizer(tok model.FastTokenizer) { s.tokenizer = tok }

func (s *NGramPerplexity) Score(ctx context.Context, examples []model.Example) ([]float64, error) {
	if s.tokenizer == nil {
		return nil, fmt.Errorf("ngram scorer used before tokenizer injection")
	}

	tokens := make([][]int64, len(examples))
	for i, ex := range examples {
		tokens[i] = s.contentTokens(ex)
	}

	ngrams := make(map[string]int)
	prefixes := make(map[string]int)
	for _, row := range tokens {
		for i := s.ngramSize - 1; i < len(row); i++ {
			ngrams[gramKey(row[i-s.ngramSize+1:i+1])]++
			prefixes[gramKey(row[i-s.ngramSize+1:i])]++
		}
	}

	vocab := float64(s.tokenizer.VocabSize())
	scores := make([]float64, len(examples))
	for i, row := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(row) < s.ngramSize {
			// Too short to emit a single n-gram; maximally surprising.
			scores[i] = math.NaN()
			continue
		}
		sum := 0.0
		count := 0
		for j := s.ngramSize - 1; j < len(row); j++ {
			num := float64(ngrams[gramKey(row[j-s.ngramSize+1:j+1])]) + s.smoothing
			den := float64(prefixes[gramKey(row[j-s.ngramSize+1:j])]) + s.smoothing*vocab
			sum += -math.Log(num / den)
			count++
		}
		scores[i] = math.Exp(sum / float64(count))
	}
	return scores, nil
}

// contentTokens drops special-token positions before counting.
func (s *NGramPerplexity) contentTokens(ex model.Example) []int64 {
	mask := s.tokenizer.SpecialTokensMask(ex.IDs, true)
	out := make([]int64, 0, len(ex.IDs))
	for i, id := range ex.IDs {
		if mask[i] == 0 {
			out = append(out, id)
		}
	}
	return out
}

func gramKey(ids []int64) string {
	buf := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(id))
	}
	return string(buf)
}
