package model

import "curricula/internal/tensor"

// Batch is a model-ready record of (batch_size, seq_len) tensors.
// Transient: it exists only for the duration of one forward pass.
type Batch struct {
	InputIDs          *tensor.IntTensor `json:"input_ids"`
	SpecialTokensMask *tensor.IntTensor `json:"special_tokens_mask"`
	Labels            *tensor.IntTensor `json:"labels,omitempty"`
}
