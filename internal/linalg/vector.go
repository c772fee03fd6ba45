// Package linalg provides the dense vector and matrix primitives the model
// core is built on: flat row-major float64 storage with the handful of
// row-indexed kernels stochastic gradient descent needs (row dot products,
// row-scaled accumulation, in-place scaling).
//
// Shape mismatches are programming errors and panic. Inner loops delegate to
// gonum's floats kernels.
package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Vector is a dense float64 vector.
//
// Data is exported so callers can index elements directly; the methods cover
// everything the training loop does in bulk.
type Vector struct {
	Data []float64
}

// NewVector creates a zeroed vector of the given size.
func NewVector(n int) *Vector {
	if n <= 0 {
		panic(fmt.Sprintf("linalg: vector size must be positive, got %d", n))
	}
	return &Vector{Data: make([]float64, n)}
}

// Size returns the number of elements.
func (v *Vector) Size() int {
	return len(v.Data)
}

// Zero sets every element to 0.
func (v *Vector) Zero() {
	for i := range v.Data {
		v.Data[i] = 0
	}
}

// Scale multiplies the vector by a in place.
func (v *Vector) Scale(a float64) {
	floats.Scale(a, v.Data)
}

// AddVec accumulates a*other into v.
func (v *Vector) AddVec(other *Vector, a float64) {
	if len(v.Data) != len(other.Data) {
		panic(fmt.Sprintf("linalg: AddVec size mismatch %d vs %d", len(v.Data), len(other.Data)))
	}
	floats.AddScaled(v.Data, a, other.Data)
}

// Dot returns the inner product of v and other.
func (v *Vector) Dot(other *Vector) float64 {
	if len(v.Data) != len(other.Data) {
		panic(fmt.Sprintf("linalg: Dot size mismatch %d vs %d", len(v.Data), len(other.Data)))
	}
	return floats.Dot(v.Data, other.Data)
}

// AddRow accumulates a*m[row] into v.
func (v *Vector) AddRow(m *Matrix, row int, a float64) {
	if len(v.Data) != m.Cols {
		panic(fmt.Sprintf("linalg: AddRow width mismatch %d vs %d", len(v.Data), m.Cols))
	}
	floats.AddScaled(v.Data, a, m.Row(row))
}

// MulMatVec sets v[i] = dot(m[i], x) for every row i.
func (v *Vector) MulMatVec(m *Matrix, x *Vector) {
	if len(v.Data) != m.Rows {
		panic(fmt.Sprintf("linalg: MulMatVec height mismatch %d vs %d", len(v.Data), m.Rows))
	}
	for i := 0; i < m.Rows; i++ {
		v.Data[i] = m.DotRow(x, i)
	}
}

// Argmax returns the index of the largest element.
func (v *Vector) Argmax() int {
	return floats.MaxIdx(v.Data)
}

// L1 returns the sum of absolute values.
func (v *Vector) L1() float64 {
	return floats.Norm(v.Data, 1)
}
