// Package model implements the training and inference core of the shallow
// embedding model: bag-of-features (or attention-weighted) hidden states,
// three interchangeable output losses (full softmax, hierarchical softmax
// over a Huffman tree, negative sampling) and k-best prediction.
//
// Concurrency contract: one Model is used by exactly one goroutine. Multiple
// workers each hold their own Model but share the input, output and
// attention matrices by reference. Row-level reads and accumulates into the
// shared matrices are deliberately unsynchronized (asynchronous lock-free
// SGD); do not add locking around them.
package model

import (
	"fmt"
	"math/rand"

	"github.com/weft-ml/weft/internal/config"
	"github.com/weft-ml/weft/internal/linalg"
)

// Pair is one attention input: a context feature and its relative position
// inside the window (shifted so positions are non-negative).
type Pair struct {
	Feature  int
	Position int
}

// Model is one worker's view of the shared embedding tables plus its private
// working state (hidden/gradient/output buffers, lookup tables, rand).
type Model struct {
	wi   *linalg.Matrix // input embeddings, shared across workers
	wo   *linalg.Matrix // output embeddings, shared across workers
	attn *linalg.Matrix // attention weights by (feature, position); nil without attention
	bias *linalg.Vector // attention bias by position; nil without attention
	cfg  *config.Config

	hidden *linalg.Vector
	output *linalg.Vector
	grad   *linalg.Vector

	softmaxAttn []float64
	pairBuf     []Pair

	rng *rand.Rand

	osz int // output vocabulary size V
	hsz int // hidden dimension H

	// negative sampling state
	negatives []int
	negpos    int

	// hierarchical softmax state
	tree  []treeNode
	paths [][]int
	codes [][]bool

	loss      float64
	nexamples int64

	sigmoidTable []float64
	logTable     []float64
}

// New creates a model over the shared tables. attn and bias may be nil when
// no attention variant is used. seed derives the private rand, typically
// from the worker index so per-worker draws are reproducible.
func New(wi, wo, attn *linalg.Matrix, bias *linalg.Vector, cfg *config.Config, seed int64) *Model {
	if wi.Cols != cfg.Dim || wo.Cols != cfg.Dim {
		panic(fmt.Sprintf("model: embedding width %d/%d does not match dim %d", wi.Cols, wo.Cols, cfg.Dim))
	}
	m := &Model{
		wi:        wi,
		wo:        wo,
		attn:      attn,
		bias:      bias,
		cfg:       cfg,
		hidden:    linalg.NewVector(cfg.Dim),
		output:    linalg.NewVector(wo.Rows),
		grad:      linalg.NewVector(cfg.Dim),
		rng:       rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic per-worker draws
		osz:       wo.Rows,
		hsz:       cfg.Dim,
		nexamples: 1,
	}
	m.initSigmoid()
	m.initLog()
	return m
}

// SetTargetCounts supplies the per-class frequency counts and builds the
// loss-specific structures: the negative-sampling table or the Huffman tree.
// Counts must be ascending (see buildTree) and must cover every class. Must
// be called once before any training step.
func (m *Model) SetTargetCounts(counts []int64) {
	if len(counts) != m.osz {
		panic(fmt.Sprintf("model: got %d counts for %d classes", len(counts), m.osz))
	}
	if m.cfg.Loss == config.LossNegativeSampling {
		if m.osz < 2 {
			// A single class would make the rejection draw spin forever.
			panic("model: negative sampling needs at least 2 classes")
		}
		m.initTableNegatives(counts)
	}
	if m.cfg.Loss == config.LossHierarchicalSoftmax {
		m.buildTree(counts)
	}
}

// Update performs one plain (bag-averaged) gradient step toward target.
// Empty input is a no-op. target must be a valid class index.
func (m *Model) Update(input []int, target int, lr float64) {
	m.checkTarget(target)
	if len(input) == 0 {
		return
	}
	m.computeHidden(input, m.hidden)
	m.loss += m.runLoss(target, lr)
	m.nexamples++

	if m.cfg.Model == config.ModelSupervised {
		m.grad.Scale(1.0 / float64(len(input)))
	}
	for _, feature := range input {
		m.wi.AddRow(m.grad, feature, 1.0)
	}
}

// UpdateAttn performs one context-view attention gradient step: each input
// pair is weighted by softmax over its own attention score. Pairs whose
// feature equals the target are dropped first; if none remain the step is
// skipped entirely.
func (m *Model) UpdateAttn(input []Pair, target int, lr float64) {
	m.checkTarget(target)
	input = m.dropTarget(input, target)
	if len(input) == 0 {
		return
	}
	m.computeAttnHidden(input, m.hidden)
	m.loss += m.runLoss(target, lr)
	m.nexamples++

	m.computeAttnGradient(input, m.grad)
}

// UpdateAttnTarget performs one target-view attention gradient step: pairs
// are weighted by the target class's attention row rather than their own.
func (m *Model) UpdateAttnTarget(input []Pair, target int, lr float64) {
	m.checkTarget(target)
	input = m.dropTarget(input, target)
	if len(input) == 0 {
		return
	}
	m.computeAttnHiddenTarget(input, target, m.hidden)
	m.loss += m.runLoss(target, lr)
	m.nexamples++

	m.computeAttnGradientTarget(input, target, m.grad)
}

// AvgLoss returns the running average per-example loss.
func (m *Model) AvgLoss() float64 {
	return m.loss / float64(m.nexamples)
}

// runLoss dispatches to the configured loss strategy.
func (m *Model) runLoss(target int, lr float64) float64 {
	switch m.cfg.Loss {
	case config.LossNegativeSampling:
		return m.negativeSampling(target, lr)
	case config.LossHierarchicalSoftmax:
		return m.hierarchicalSoftmax(target, lr)
	default:
		return m.softmax(target, lr)
	}
}

// computeHidden averages the input embedding rows into hidden.
func (m *Model) computeHidden(input []int, hidden *linalg.Vector) {
	if hidden.Size() != m.hsz {
		panic(fmt.Sprintf("model: hidden size %d does not match dim %d", hidden.Size(), m.hsz))
	}
	hidden.Zero()
	for _, feature := range input {
		hidden.AddRow(m.wi, feature, 1.0)
	}
	hidden.Scale(1.0 / float64(len(input)))
}

// dropTarget filters out pairs whose feature equals target, reusing the
// model's pair buffer. Self-prediction through attention is disallowed.
func (m *Model) dropTarget(input []Pair, target int) []Pair {
	m.pairBuf = m.pairBuf[:0]
	for _, p := range input {
		if p.Feature != target {
			m.pairBuf = append(m.pairBuf, p)
		}
	}
	return m.pairBuf
}

func (m *Model) checkTarget(target int) {
	if target < 0 || target >= m.osz {
		panic(fmt.Sprintf("model: target %d out of range [0,%d)", target, m.osz))
	}
}
