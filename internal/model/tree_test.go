package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/config"
)

func TestBuildTree_TinyAscendingCounts(t *testing.T) {
	m := newTestModel(4, 8, testConfig(config.LossHierarchicalSoftmax), []int64{1, 2, 3, 4})

	require.Len(t, m.tree, 7)

	// The two smallest leaves merge first.
	first := m.tree[4]
	assert.Equal(t, 0, first.left)
	assert.Equal(t, 1, first.right)
	assert.Equal(t, int64(3), first.count)
	assert.Equal(t, 4, m.tree[0].parent)
	assert.Equal(t, 4, m.tree[1].parent)

	// Every internal node's count is the sum of its children.
	for i := 4; i < 7; i++ {
		n := m.tree[i]
		assert.Equal(t, m.tree[n.left].count+m.tree[n.right].count, n.count, "node %d", i)
	}

	// The root is the last created node and has no parent.
	assert.Equal(t, -1, m.tree[6].parent)

	// Cached path/code lengths equal each leaf's depth from the root.
	for leaf := 0; leaf < 4; leaf++ {
		depth := 0
		for j := leaf; m.tree[j].parent != -1; j = m.tree[j].parent {
			depth++
		}
		assert.Len(t, m.paths[leaf], depth, "leaf %d", leaf)
		assert.Len(t, m.codes[leaf], depth, "leaf %d", leaf)
	}

	// Rarer classes sit deeper: counts [1,2,3,4] give depths [3,3,2,1].
	assert.Equal(t, 3, len(m.paths[0]))
	assert.Equal(t, 3, len(m.paths[1]))
	assert.Equal(t, 2, len(m.paths[2]))
	assert.Equal(t, 1, len(m.paths[3]))
}

func TestBuildTree_LeafCountMonotoneUpPaths(t *testing.T) {
	m := newTestModel(6, 8, testConfig(config.LossHierarchicalSoftmax), []int64{1, 1, 2, 3, 5, 8})

	// Counts never decrease walking from any leaf to the root.
	for leaf := 0; leaf < 6; leaf++ {
		for j := leaf; m.tree[j].parent != -1; j = m.tree[j].parent {
			assert.GreaterOrEqual(t, m.tree[m.tree[j].parent].count, m.tree[j].count)
		}
	}
}

func TestBuildTree_SingleClass(t *testing.T) {
	m := newTestModel(1, 8, testConfig(config.LossHierarchicalSoftmax), []int64{5})

	require.Len(t, m.tree, 1)
	assert.Empty(t, m.paths[0])
	assert.Empty(t, m.codes[0])
}
