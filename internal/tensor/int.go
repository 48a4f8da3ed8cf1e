package tensor

import "fmt"

// IntTensor is a dense int64 tensor, used for token ids and labels.
type IntTensor struct {
	Data  []int64
	Shape []int
}

// NewInt creates a zero-initialized integer tensor.
func NewInt(shape ...int) *IntTensor {
	return &IntTensor{
		Data:  make([]int64, sizeOf(shape)),
		Shape: copyShape(shape),
	}
}

// IntFromRows builds a (len(rows), width) tensor from equal-length rows.
func IntFromRows(rows [][]int64) (*IntTensor, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrShapeMismatch)
	}
	width := len(rows[0])
	out := NewInt(len(rows), width)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d elements, want %d", ErrShapeMismatch, i, len(row), width)
		}
		copy(out.Data[i*width:], row)
	}
	return out, nil
}

// Size returns the total element count.
func (t *IntTensor) Size() int { return len(t.Data) }

// Dim returns the size of dimension i.
func (t *IntTensor) Dim(i int) int { return t.Shape[i] }

// View returns a tensor with a different shape sharing the same data.
func (t *IntTensor) View(shape ...int) (*IntTensor, error) {
	if sizeOf(shape) != len(t.Data) {
		return nil, fmt.Errorf("%w: cannot view %v as %v", ErrShapeMismatch, t.Shape, shape)
	}
	return &IntTensor{Data: t.Data, Shape: copyShape(shape)}, nil
}

// Clone returns a deep copy.
func (t *IntTensor) Clone() *IntTensor {
	data := make([]int64, len(t.Data))
	copy(data, t.Data)
	return &IntTensor{Data: data, Shape: copyShape(t.Shape)}
}

// Fill sets every element to value and returns the receiver.
func (t *IntTensor) Fill(value int64) *IntTensor {
	for i := range t.Data {
		t.Data[i] = value
	}
	return t
}

// At reads the element at the given multi-index.
func (t *IntTensor) At(indices ...int) int64 {
	return t.Data[t.offset(indices)]
}

// Set writes the element at the given multi-index.
func (t *IntTensor) Set(value int64, indices ...int) {
	t.Data[t.offset(indices)] = value
}

// Row returns the i-th row of a rank-2 tensor, sharing storage.
func (t *IntTensor) Row(i int) []int64 {
	width := t.Shape[len(t.Shape)-1]
	return t.Data[i*width : (i+1)*width]
}

func (t *IntTensor) offset(indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d tensor", len(indices), len(t.Shape)))
	}
	off := 0
	for i, idx := range indices {
		off = off*t.Shape[i] + idx
	}
	return off
}
