package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// IgnoreIndex is the label value excluded from loss computation.
const IgnoreIndex = -100

// ObjectiveUnit is the configuration record for one training objective.
// Immutable once loaded; owned by the curriculum.
type ObjectiveUnit struct {
	Name            string  `json:"name"`
	MaskProbability float64 `json:"mask_probability"`

	// Whole-word-masking extensions. Zero values mean "plain whole-word
	// masking with the standard 80/10/10 split".
	NumMaskPatterns        int     `json:"num_mask_patterns,omitempty"`
	MaskPatternSize        int     `json:"mask_pattern_size,omitempty"`
	ProbabilisticMasking   bool    `json:"probabilistic_masking,omitempty"`
	MaskingProbability     float64 `json:"masking_probability,omitempty"`
	LeaveUnmaskedProbStart float64 `json:"leave_unmasked_prob_start,omitempty"`
	LeaveUnmaskedProb      float64 `json:"leave_unmasked_prob,omitempty"`
	RandomTokenProb        float64 `json:"random_token_prob,omitempty"`
	ConsecutiveMasking     bool    `json:"consecutive_masking,omitempty"`
}

// CurriculumSpec is the externally validated curriculum definition:
// a step->unit-name schedule plus the unit definitions it refers to.
type CurriculumSpec struct {
	Steps map[int]string           `json:"steps"`
	Units map[string]ObjectiveUnit `json:"units"`
}

// Example is one raw training example before collation. WordIDs maps
// each token position to its word index (-1 for special tokens), and
// MaskableStarts marks word-start positions eligible for whole-word
// masking, as produced by the upstream annotation pass.
type Example struct {
	IDs            []int64 `json:"input_ids"`
	WordIDs        []int   `json:"word_ids,omitempty"`
	MaskableStarts []bool  `json:"maskable_starts,omitempty"`
	Text           string  `json:"text,omitempty"`
}

// ScoringRun records one difficulty-scoring pass over a dataset.
type ScoringRun struct {
	VersionedRecord
	ID         string         `json:"id"`
	ScorerName string         `json:"scorer_name"`
	Kwargs     map[string]any `json:"kwargs,omitempty"`
	Examples   int            `json:"examples"`
	Step       int            `json:"step"`
	CreatedAt  string         `json:"created_at"`
}

// ScoreRecord is the persisted difficulty score for one example.
type ScoreRecord struct {
	VersionedRecord
	RunID        string  `json:"run_id"`
	ExampleIndex int     `json:"example_index"`
	Score        float64 `json:"score"`
}

// Tokenizer is the external tokenizer collaborator. A mask token id of
// -1 means the tokenizer has no mask token.
type Tokenizer interface {
	MaskTokenID() int
	PadTokenID() int
	VocabSize() int
	SpecialTokensMask(ids []int64, alreadyHasSpecialTokens bool) []int
}

// FastTokenizer additionally supports offset-mapping operations.
// Scorers that consume a tokenizer require this capability; the
// pipeline validates it before the trainer is built.
type FastTokenizer interface {
	Tokenizer
	WordIDs(ids []int64) []int
}
