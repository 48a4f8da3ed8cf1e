package main

// flatTokenizer is the CLI's stand-in tokenizer for batch previews: a
// flat id space where only pad and mask positions count as special.
// Real training wires an actual tokenizer through the library API.
type flatTokenizer struct {
	maskID int
	padID  int
	vocab  int
}

func (t flatTokenizer) MaskTokenID() int { return t.maskID }
func (t flatTokenizer) PadTokenID() int  { return t.padID }
func (t flatTokenizer) VocabSize() int   { return t.vocab }

func (t flatTokenizer) SpecialTokensMask(ids []int64, _ bool) []int {
	mask := make([]int, len(ids))
	for i, id := range ids {
		if id == int64(t.padID) || id == int64(t.maskID) {
			mask[i] = 1
		}
	}
	return mask
}
