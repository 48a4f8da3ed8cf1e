package collator

import (
	"errors"
	"math/rand"
	"testing"

	"curricula/internal/curriculum"
	"curricula/internal/model"
)

// fakeTokenizer treats ids 0 (pad), 1 (cls) and 2 (sep) as special;
// id 4 is the mask token.
type fakeTokenizer struct {
	noMask bool
}

func (f fakeTokenizer) MaskTokenID() int {
	if f.noMask {
		return -1
	}
	return 4
}

func (f fakeTokenizer) PadTokenID() int { return 0 }
func (f fakeTokenizer) VocabSize() int  { return 100 }

func (f fakeTokenizer) SpecialTokensMask(ids []int64, _ bool) []int {
	mask := make([]int, len(ids))
	for i, id := range ids {
		if id <= 2 {
			mask[i] = 1
		}
	}
	return mask
}

func testCurriculum(t *testing.T) *curriculum.Curriculum {
	t.Helper()
	c, err := curriculum.New(model.CurriculumSpec{
		Steps: map[int]string{0: "mlm", 100: "pos"},
		Units: map[string]model.ObjectiveUnit{
			"mlm": {MaskProbability: 0.15},
			"pos": {MaskProbability: 0.3, NumMaskPatterns: 2, MaskPatternSize: 1},
		},
	})
	if err != nil {
		t.Fatalf("new curriculum: %v", err)
	}
	return c
}

func TestLoadMLMCarriesUnitMaskProbability(t *testing.T) {
	cur := testCurriculum(t)
	c, err := Load(cur, fakeTokenizer{}, 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	mlm, ok := c.(*MLM)
	if !ok {
		t.Fatalf("expected *MLM, got %T", c)
	}
	if got := mlm.MaskProbability(); got != 0.15 {
		t.Fatalf("mask probability: got=%f want=0.15", got)
	}
}

func TestLoadFallsBackToMLMBetweenTransitions(t *testing.T) {
	cur := testCurriculum(t)
	c, err := Load(cur, fakeTokenizer{}, 50)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := c.(*MLM); !ok {
		t.Fatalf("expected *MLM at step 50, got %T", c)
	}
}

func TestLoadWholeWordAtTransition(t *testing.T) {
	cur := testCurriculum(t)
	c, err := Load(cur, fakeTokenizer{}, 100)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ww, ok := c.(*WholeWord)
	if !ok {
		t.Fatalf("expected *WholeWord at step 100, got %T", c)
	}
	if got := ww.Unit().NumMaskPatterns; got != 2 {
		t.Fatalf("unit not carried: got %d patterns, want 2", got)
	}
}

func TestLoadUnsupportedObjective(t *testing.T) {
	cur, err := curriculum.New(model.CurriculumSpec{
		Steps: map[int]string{10: "span"},
		Units: map[string]model.ObjectiveUnit{
			"mlm":  {MaskProbability: 0.15},
			"span": {MaskProbability: 0.15},
		},
	})
	if err != nil {
		t.Fatalf("new curriculum: %v", err)
	}
	if _, err := Load(cur, fakeTokenizer{}, 10); !errors.Is(err, ErrUnsupportedObjective) {
		t.Fatalf("expected ErrUnsupportedObjective, got: %v", err)
	}
}

func TestLoadMissingMaskToken(t *testing.T) {
	cur := testCurriculum(t)
	if _, err := Load(cur, fakeTokenizer{noMask: true}, 0); !errors.Is(err, ErrMissingMaskToken) {
		t.Fatalf("expected ErrMissingMaskToken, got: %v", err)
	}
}

func TestMLMCollateNeverMasksSpecialOrPad(t *testing.T) {
	c := NewMLM(fakeTokenizer{}, 1.0, rand.New(rand.NewSource(1)))
	examples := []model.Example{
		{IDs: []int64{1, 10, 11, 12, 2}},
		{IDs: []int64{1, 20, 2}}, // padded by two positions
	}
	batch, err := c.Collate(examples)
	if err != nil {
		t.Fatalf("collate: %v", err)
	}
	if batch.InputIDs.Dim(0) != 2 || batch.InputIDs.Dim(1) != 5 {
		t.Fatalf("unexpected batch shape: %v", batch.InputIDs.Shape)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 5; j++ {
			if batch.SpecialTokensMask.At(i, j) == 1 {
				if got := batch.Labels.At(i, j); got != model.IgnoreIndex {
					t.Fatalf("special position (%d,%d) has label %d", i, j, got)
				}
			}
		}
	}
	// Pad positions of the short example keep the pad id.
	if got := batch.InputIDs.At(1, 3); got != 0 {
		t.Fatalf("pad position rewritten to %d", got)
	}
	// With probability 1 every non-special position is scored.
	for _, j := range []int{1, 2, 3} {
		if got := batch.Labels.At(0, j); got == model.IgnoreIndex {
			t.Fatalf("eligible position (0,%d) not scored", j)
		}
	}
}

func TestMLMCollateZeroProbabilityLeavesInputsUntouched(t *testing.T) {
	c := NewMLM(fakeTokenizer{}, 0, rand.New(rand.NewSource(1)))
	batch, err := c.Collate([]model.Example{{IDs: []int64{1, 10, 11, 2}}})
	if err != nil {
		t.Fatalf("collate: %v", err)
	}
	for j, want := range []int64{1, 10, 11, 2} {
		if got := batch.InputIDs.At(0, j); got != want {
			t.Fatalf("position %d rewritten: got=%d want=%d", j, got, want)
		}
		if got := batch.Labels.At(0, j); got != model.IgnoreIndex {
			t.Fatalf("position %d scored with probability 0", j)
		}
	}
}

func TestMLMCollateReplaceSplit(t *testing.T) {
	c := NewMLM(fakeTokenizer{}, 1.0, rand.New(rand.NewSource(7)))
	ids := make([]int64, 2000)
	for i := range ids {
		ids[i] = 10 + int64(i%50)
	}
	batch, err := c.Collate([]model.Example{{IDs: ids}})
	if err != nil {
		t.Fatalf("collate: %v", err)
	}
	maskID := int64(4)
	masked := 0
	for j := range ids {
		if batch.InputIDs.At(0, j) == maskID {
			masked++
		}
	}
	frac := float64(masked) / float64(len(ids))
	if frac < 0.75 || frac > 0.85 {
		t.Fatalf("mask-token fraction %f outside [0.75, 0.85]", frac)
	}
}
