package linalg

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a dense row-major float64 matrix.
//
// Matrices are shared by reference across concurrently running model
// instances during training. Row-level reads and accumulates are not
// synchronized; racing updates to the same row are an accepted part of the
// asynchronous SGD design, so callers must not add locking around them.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// NewMatrix creates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("linalg: matrix dims must be positive, got %dx%d", rows, cols))
	}
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]float64, rows*cols),
	}
}

// Row returns the backing slice for row i.
func (m *Matrix) Row(i int) []float64 {
	if i < 0 || i >= m.Rows {
		panic(fmt.Sprintf("linalg: row %d out of range [0,%d)", i, m.Rows))
	}
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 {
	return m.Row(i)[j]
}

// Set stores x at element (i, j).
func (m *Matrix) Set(i, j int, x float64) {
	m.Row(i)[j] = x
}

// Add accumulates delta into element (i, j).
func (m *Matrix) Add(i, j int, delta float64) {
	m.Row(i)[j] += delta
}

// DotRow returns dot(m[row], v).
func (m *Matrix) DotRow(v *Vector, row int) float64 {
	if len(v.Data) != m.Cols {
		panic(fmt.Sprintf("linalg: DotRow width mismatch %d vs %d", len(v.Data), m.Cols))
	}
	return floats.Dot(m.Row(row), v.Data)
}

// AddRow accumulates a*v into m[row].
func (m *Matrix) AddRow(v *Vector, row int, a float64) {
	if len(v.Data) != m.Cols {
		panic(fmt.Sprintf("linalg: AddRow width mismatch %d vs %d", len(v.Data), m.Cols))
	}
	floats.AddScaled(m.Row(row), a, v.Data)
}

// Zero sets every element to 0.
func (m *Matrix) Zero() {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

// UniformInit fills the matrix with samples from U(-a, a).
func (m *Matrix) UniformInit(rng *rand.Rand, a float64) {
	for i := range m.Data {
		m.Data[i] = (rng.Float64()*2 - 1) * a
	}
}
