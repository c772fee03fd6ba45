package model

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/linalg"
)

// Prediction is one k-best result: a class and its log-probability.
type Prediction struct {
	LogProb float64
	Class   int
}

// predHeap is a min-heap on LogProb, bounded at k by its users: once full,
// a better candidate displaces the current minimum.
type predHeap []Prediction

func (h predHeap) Len() int           { return len(h) }
func (h predHeap) Less(i, j int) bool { return h[i].LogProb < h[j].LogProb }
func (h predHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *predHeap) Push(x any)        { *h = append(*h, x.(Prediction)) }
func (h *predHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

func (h *predHeap) pushBounded(k int, p Prediction) {
	heap.Push(h, p)
	if h.Len() > k {
		heap.Pop(h)
	}
}

// Predict returns the k best output classes for the input bag, sorted by
// descending log-probability. Hierarchical-softmax models use a
// branch-and-bound DFS over the tree; the other losses scan the full
// softmax. k must be positive.
func (m *Model) Predict(input []int, k int) []Prediction {
	if k <= 0 {
		panic(fmt.Sprintf("model: k must be positive, got %d", k))
	}
	m.computeHidden(input, m.hidden)
	h := make(predHeap, 0, k+1)
	if m.cfg.Loss == config.LossHierarchicalSoftmax {
		m.dfs(k, 2*m.osz-2, 0.0, &h, m.hidden)
	} else {
		m.findKBest(k, &h, m.hidden, m.output)
	}
	sort.Slice(h, func(i, j int) bool { return h[i].LogProb > h[j].LogProb })
	return h
}

// findKBest scans the full softmax, keeping the k largest log-probabilities
// in the bounded heap. Candidates no better than the heap's minimum are
// skipped once the heap is full.
func (m *Model) findKBest(k int, h *predHeap, hidden, output *linalg.Vector) {
	m.computeOutputSoftmax(hidden, output)
	for i := 0; i < m.osz; i++ {
		lp := m.log(output.Data[i])
		if h.Len() == k && lp < (*h)[0].LogProb {
			continue
		}
		h.pushBounded(k, Prediction{LogProb: lp, Class: i})
	}
}

// dfs walks the Huffman tree depth-first, accumulating edge
// log-probabilities: log(1-sigmoid) for the left edge, log(sigmoid) for the
// right. A subtree is pruned as soon as its accumulated score cannot beat
// the current k-th best, which keeps k-best tractable on large trees.
func (m *Model) dfs(k, node int, score float64, h *predHeap, hidden *linalg.Vector) {
	if h.Len() == k && score < (*h)[0].LogProb {
		return
	}
	if m.tree[node].left == -1 && m.tree[node].right == -1 {
		h.pushBounded(k, Prediction{LogProb: score, Class: node})
		return
	}
	f := m.sigmoid(m.wo.DotRow(hidden, node-m.osz))
	m.dfs(k, m.tree[node].left, score+m.log(1.0-f), h, hidden)
	m.dfs(k, m.tree[node].right, score+m.log(f), h, hidden)
}
