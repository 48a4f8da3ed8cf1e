// Package trainer defines the handle through which curriculum
// components reach the live training run: the model, its device, the
// tokenizer and the objective curriculum. The handle is non-owning;
// holders must not tear any of it down.
package trainer

import (
	"errors"

	"curricula/internal/curriculum"
	"curricula/internal/model"
	"curricula/internal/tensor"
)

// Model is the external model collaborator: maps a batch of input ids
// (N, L) to per-position vocabulary logits (N, L, V).
type Model interface {
	Forward(ids *tensor.IntTensor) (*tensor.Tensor, error)
}

// Device names the compute context the trainer manages. Tensor
// placement is the trainer's concern; this core runs single-host.
type Device string

const DeviceCPU Device = "cpu"

var ErrIncomplete = errors.New("trainer handle is incomplete")

// Trainer is the live training-run handle.
type Trainer struct {
	Device              Device
	Model               Model
	Tokenizer           model.Tokenizer
	ObjectiveCurriculum *curriculum.Curriculum
}

// New validates and builds a trainer handle.
func New(device Device, m Model, tok model.Tokenizer, cur *curriculum.Curriculum) (*Trainer, error) {
	if m == nil || tok == nil || cur == nil {
		return nil, ErrIncomplete
	}
	if device == "" {
		device = DeviceCPU
	}
	return &Trainer{Device: device, Model: m, Tokenizer: tok, ObjectiveCurriculum: cur}, nil
}
