package model

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/linalg"
)

// pathLogProb computes a leaf's log-probability by the closed-form product
// over its cached tree path, using the model's own approximated primitives.
func pathLogProb(m *Model, leaf int, hidden *linalg.Vector) float64 {
	lp := 0.0
	for i, node := range m.paths[leaf] {
		f := m.sigmoid(m.wo.DotRow(hidden, node))
		if m.codes[leaf][i] {
			lp += m.log(f)
		} else {
			lp += m.log(1.0 - f)
		}
	}
	return lp
}

func newPredictModel(t *testing.T, loss config.Loss) *Model {
	t.Helper()
	m := newTestModel(4, 8, testConfig(loss), []int64{1, 2, 3, 4})
	// A few steps against different targets give the output table shape.
	for i := 0; i < 10; i++ {
		m.Update([]int{0, 1}, i%4, 0.5)
	}
	return m
}

func TestPredict_TreeDFSMatchesClosedForm(t *testing.T) {
	m := newPredictModel(t, config.LossHierarchicalSoftmax)

	input := []int{0, 1}
	got := m.Predict(input, 2)
	require.Len(t, got, 2)

	hidden := linalg.NewVector(8)
	m.computeHidden(input, hidden)
	want := make([]Prediction, 0, 4)
	for leaf := 0; leaf < 4; leaf++ {
		want = append(want, Prediction{LogProb: pathLogProb(m, leaf, hidden), Class: leaf})
	}
	sort.Slice(want, func(i, j int) bool { return want[i].LogProb > want[j].LogProb })

	for i := 0; i < 2; i++ {
		assert.Equal(t, want[i].Class, got[i].Class, "rank %d", i)
		assert.InDelta(t, want[i].LogProb, got[i].LogProb, 1e-9, "rank %d", i)
	}
}

func TestPredict_SortedAndBounded(t *testing.T) {
	for _, loss := range []config.Loss{config.LossHierarchicalSoftmax, config.LossSoftmax} {
		m := newPredictModel(t, loss)

		for _, k := range []int{1, 2, 4, 10} {
			got := m.Predict([]int{0, 1}, k)
			assert.LessOrEqual(t, len(got), k)
			assert.LessOrEqual(t, len(got), 4)
			for i := 1; i < len(got); i++ {
				assert.GreaterOrEqual(t, got[i-1].LogProb, got[i].LogProb)
			}
		}
	}
}

func TestPredict_ExhaustiveTopOneIsArgmax(t *testing.T) {
	m := newPredictModel(t, config.LossSoftmax)

	input := []int{0, 1}
	got := m.Predict(input, 1)
	require.Len(t, got, 1)

	hidden := linalg.NewVector(8)
	m.computeHidden(input, hidden)
	output := linalg.NewVector(4)
	m.computeOutputSoftmax(hidden, output)
	// Compare through the table log: candidates in the same log bucket are
	// legitimate ties for the heap.
	assert.InDelta(t, m.log(output.Data[output.Argmax()]), got[0].LogProb, 1e-12)
}

func TestPredict_NonPositiveKPanics(t *testing.T) {
	m := newPredictModel(t, config.LossSoftmax)

	assert.Panics(t, func() { m.Predict([]int{0}, 0) })
	assert.Panics(t, func() { m.Predict([]int{0}, -3) })
}

func TestComputeOutputSoftmax_SumsToOne(t *testing.T) {
	m := newPredictModel(t, config.LossSoftmax)

	hidden := linalg.NewVector(8)
	m.computeHidden([]int{0, 1, 2}, hidden)
	output := linalg.NewVector(4)
	m.computeOutputSoftmax(hidden, output)

	sum := 0.0
	for _, p := range output.Data {
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestComputeOutputSoftmax_ShiftInvariant(t *testing.T) {
	m := newPredictModel(t, config.LossSoftmax)

	hidden := linalg.NewVector(8)
	m.computeHidden([]int{0, 1}, hidden)
	base := linalg.NewVector(4)
	m.computeOutputSoftmax(hidden, base)

	// Shift every pre-softmax score by a constant c: adding
	// c*hidden/(hidden.hidden) to each output row shifts each row's dot
	// product with hidden by exactly c.
	const c = 25.0
	scale := c / hidden.Dot(hidden)
	for r := 0; r < m.wo.Rows; r++ {
		m.wo.AddRow(hidden, r, scale)
	}
	shifted := linalg.NewVector(4)
	m.computeOutputSoftmax(hidden, shifted)

	for i := range base.Data {
		assert.InDelta(t, base.Data[i], shifted.Data[i], 1e-9, "class %d", i)
	}
}
