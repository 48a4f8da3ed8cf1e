package curriculum

import (
	"errors"
	"fmt"
	"math"

	"curricula/internal/model"
	"curricula/internal/tensor"
)

// Reduction selects how per-position losses are aggregated.
type Reduction string

const (
	ReductionNone Reduction = "none"
	ReductionMean Reduction = "mean"
	ReductionSum  Reduction = "sum"
)

var ErrBadLossShape = errors.New("loss input shape mismatch")

// LossOptions tunes ComputeLoss. The zero value means mean reduction.
type LossOptions struct {
	Reduction Reduction
}

// ComputeLoss computes masked cross-entropy between per-position vocab
// logits (N, L, V) and label ids (N, L). Positions labelled with the
// ignore sentinel contribute zero loss. With ReductionNone the result
// keeps the (N, L) shape; mean divides by the number of scored
// positions, not by N*L.
func (u *Unit) ComputeLoss(logits *tensor.Tensor, labels *tensor.IntTensor, opts LossOptions) (*tensor.Tensor, error) {
	if len(logits.Shape) != 3 || len(labels.Shape) != 2 {
		return nil, fmt.Errorf("%w: logits rank %d, labels rank %d", ErrBadLossShape, len(logits.Shape), len(labels.Shape))
	}
	n, l, v := logits.Dim(0), logits.Dim(1), logits.Dim(2)
	if labels.Dim(0) != n || labels.Dim(1) != l {
		return nil, fmt.Errorf("%w: logits %v vs labels %v", ErrBadLossShape, logits.Shape, labels.Shape)
	}

	out := tensor.New(n, l)
	scored := 0
	for i := 0; i < n; i++ {
		for j := 0; j < l; j++ {
			label := labels.At(i, j)
			if label == model.IgnoreIndex {
				continue
			}
			if label < 0 || label >= int64(v) {
				return nil, fmt.Errorf("%w: label %d outside vocab of %d", ErrBadLossShape, label, v)
			}
			row := logits.Data[(i*l+j)*v : (i*l+j+1)*v]
			out.Set(nllFromLogits(row, int(label)), i, j)
			scored++
		}
	}

	switch opts.Reduction {
	case ReductionNone:
		return out, nil
	case ReductionSum:
		total := tensor.New()
		for _, v := range out.Data {
			total.Data[0] += v
		}
		return total, nil
	case ReductionMean, "":
		total := tensor.New()
		for _, v := range out.Data {
			total.Data[0] += v
		}
		if scored > 0 {
			total.Data[0] /= float64(scored)
		}
		return total, nil
	default:
		return nil, fmt.Errorf("unsupported reduction: %s", opts.Reduction)
	}
}

// nllFromLogits is -log softmax(logits)[label], computed with the
// max-shift trick for numerical stability.
func nllFromLogits(logits []float64, label int) float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for _, v := range logits {
		sum += math.Exp(v - max)
	}
	return math.Log(sum) - (logits[label] - max)
}
