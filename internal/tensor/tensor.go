// Package tensor provides the small set of dense tensor operations the
// collators, loss routines and the perplexity estimator need. Data is
// stored in a flat slice with row-major shape information.
package tensor

import (
	"errors"
	"fmt"
	"math"
)

var ErrShapeMismatch = errors.New("tensor shape mismatch")

// Tensor is a dense float64 tensor.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New creates a zero-initialized tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{
		Data:  make([]float64, sizeOf(shape)),
		Shape: copyShape(shape),
	}
}

// FromSlice wraps data with the given shape. The data is not copied.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	if len(data) != sizeOf(shape) {
		return nil, fmt.Errorf("%w: %d elements for shape %v", ErrShapeMismatch, len(data), shape)
	}
	return &Tensor{Data: data, Shape: copyShape(shape)}, nil
}

// Size returns the total element count.
func (t *Tensor) Size() int { return len(t.Data) }

// Dim returns the size of dimension i.
func (t *Tensor) Dim(i int) int { return t.Shape[i] }

// View returns a tensor with a different shape sharing the same data.
func (t *Tensor) View(shape ...int) (*Tensor, error) {
	if sizeOf(shape) != len(t.Data) {
		return nil, fmt.Errorf("%w: cannot view %v as %v", ErrShapeMismatch, t.Shape, shape)
	}
	return &Tensor{Data: t.Data, Shape: copyShape(shape)}, nil
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.Data))
	copy(data, t.Data)
	return &Tensor{Data: data, Shape: copyShape(t.Shape)}
}

// At reads the element at the given multi-index.
func (t *Tensor) At(indices ...int) float64 {
	return t.Data[t.offset(indices)]
}

// Set writes the element at the given multi-index.
func (t *Tensor) Set(value float64, indices ...int) {
	t.Data[t.offset(indices)] = value
}

// SumLastDim collapses the last dimension by summation. A (N, L) tensor
// becomes (N); a (B, N, L) tensor becomes (B, N).
func (t *Tensor) SumLastDim() *Tensor {
	last := t.Shape[len(t.Shape)-1]
	outShape := copyShape(t.Shape[:len(t.Shape)-1])
	out := New(outShape...)
	for i := range out.Data {
		sum := 0.0
		base := i * last
		for j := 0; j < last; j++ {
			sum += t.Data[base+j]
		}
		out.Data[i] = sum
	}
	return out
}

// MeanLastDim collapses the last dimension by arithmetic mean.
func (t *Tensor) MeanLastDim() *Tensor {
	last := t.Shape[len(t.Shape)-1]
	out := t.SumLastDim()
	for i := range out.Data {
		out.Data[i] /= float64(last)
	}
	return out
}

// Exp applies e^x elementwise in place and returns the receiver.
func (t *Tensor) Exp() *Tensor {
	for i, v := range t.Data {
		t.Data[i] = math.Exp(v)
	}
	return t
}

func (t *Tensor) offset(indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(indices), len(t.Shape)))
	}
	off := 0
	for i, idx := range indices {
		off = off*t.Shape[i] + idx
	}
	return off
}

func sizeOf(shape []int) int {
	size := 1
	for _, dim := range shape {
		size *= dim
	}
	return size
}

func copyShape(shape []int) []int {
	out := make([]int, len(shape))
	copy(out, shape)
	return out
}
