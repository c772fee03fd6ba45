package linalg_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/linalg"
)

func TestVector_Basics(t *testing.T) {
	v := linalg.NewVector(3)
	assert.Equal(t, 3, v.Size())

	v.Data[0], v.Data[1], v.Data[2] = 1, -2, 3
	assert.Equal(t, 6.0, v.L1())
	assert.Equal(t, 2, v.Argmax())

	v.Scale(2)
	assert.Equal(t, []float64{2, -4, 6}, v.Data)

	v.Zero()
	assert.Equal(t, []float64{0, 0, 0}, v.Data)
}

func TestVector_DotAndAddVec(t *testing.T) {
	a := linalg.NewVector(3)
	b := linalg.NewVector(3)
	copy(a.Data, []float64{1, 2, 3})
	copy(b.Data, []float64{4, 5, 6})

	assert.Equal(t, 32.0, a.Dot(b))

	a.AddVec(b, 0.5)
	assert.Equal(t, []float64{3, 4.5, 6}, a.Data)
}

func TestMatrix_RowOps(t *testing.T) {
	m := linalg.NewMatrix(2, 3)
	copy(m.Row(0), []float64{1, 2, 3})
	copy(m.Row(1), []float64{4, 5, 6})

	v := linalg.NewVector(3)
	copy(v.Data, []float64{1, 1, 1})

	assert.Equal(t, 6.0, m.DotRow(v, 0))
	assert.Equal(t, 15.0, m.DotRow(v, 1))

	v.AddRow(m, 1, 2.0)
	assert.Equal(t, []float64{9, 11, 13}, v.Data)

	m.AddRow(v, 0, 1.0)
	assert.Equal(t, []float64{10, 13, 16}, m.Row(0))

	assert.Equal(t, 13.0, m.At(0, 1))
	m.Set(0, 1, 0)
	m.Add(0, 1, 2.5)
	assert.Equal(t, 2.5, m.At(0, 1))
}

func TestVector_MulMatVec(t *testing.T) {
	m := linalg.NewMatrix(2, 2)
	copy(m.Row(0), []float64{1, 2})
	copy(m.Row(1), []float64{3, 4})
	x := linalg.NewVector(2)
	copy(x.Data, []float64{1, -1})

	out := linalg.NewVector(2)
	out.MulMatVec(m, x)
	assert.Equal(t, []float64{-1, -1}, out.Data)
}

func TestMatrix_UniformInit(t *testing.T) {
	m := linalg.NewMatrix(10, 10)
	m.UniformInit(rand.New(rand.NewSource(7)), 0.25)

	var nonzero int
	for _, x := range m.Data {
		require.LessOrEqual(t, x, 0.25)
		require.GreaterOrEqual(t, x, -0.25)
		if x != 0 {
			nonzero++
		}
	}
	assert.Greater(t, nonzero, 90)
}

func TestShapeMismatchesPanic(t *testing.T) {
	m := linalg.NewMatrix(2, 3)
	short := linalg.NewVector(2)

	assert.Panics(t, func() { m.DotRow(short, 0) })
	assert.Panics(t, func() { m.AddRow(short, 0, 1) })
	assert.Panics(t, func() { short.AddRow(m, 0, 1) })
	assert.Panics(t, func() { m.Row(2) })
	assert.Panics(t, func() { linalg.NewVector(0) })
	assert.Panics(t, func() { linalg.NewMatrix(0, 3) })
}
