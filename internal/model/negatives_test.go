package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/config"
)

func TestInitTableNegatives_SqrtProportional(t *testing.T) {
	counts := []int64{1, 4, 9, 16}
	m := newTestModel(4, 8, testConfig(config.LossNegativeSampling), counts)

	require.NotEmpty(t, m.negatives)

	occ := make([]int, 4)
	for _, class := range m.negatives {
		occ[class]++
	}
	// sqrt counts are 1,2,3,4, so the expected shares are 0.1,0.2,0.3,0.4.
	z := 0.0
	for _, c := range counts {
		z += math.Sqrt(float64(c))
	}
	total := float64(len(m.negatives))
	for i, c := range counts {
		want := math.Sqrt(float64(c)) / z
		assert.InDelta(t, want, float64(occ[i])/total, 1e-3, "class %d", i)
	}
}

func TestGetNegative_NeverReturnsTarget(t *testing.T) {
	m := newTestModel(4, 8, testConfig(config.LossNegativeSampling), []int64{1, 4, 9, 16})

	for target := 0; target < 4; target++ {
		for i := 0; i < 2000; i++ {
			assert.NotEqual(t, target, m.getNegative(target))
		}
	}
}

func TestGetNegative_TinyVocabulary(t *testing.T) {
	// With V=2 every rejection of the target must land on the other class.
	m := newTestModel(2, 8, testConfig(config.LossNegativeSampling), []int64{3, 5})

	for i := 0; i < 1000; i++ {
		assert.Equal(t, 1, m.getNegative(0))
	}
}

func TestSetTargetCounts_SingleClassNegativeSamplingPanics(t *testing.T) {
	cfg := testConfig(config.LossNegativeSampling)
	cfg.Dim = 8
	assert.Panics(t, func() {
		newTestModel(1, 8, cfg, []int64{5})
	})
}
