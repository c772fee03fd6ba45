package model

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/linalg"
)

// attnUnderflow is the shifted-logit threshold below which the exponential
// is clamped to exactly 0 instead of relying on float underflow.
const attnUnderflow = -50

// computeAttnHidden pools the input pairs into hidden with context-view
// attention: each pair's logit is attn(feature, position) + bias(position),
// softmax-normalized across the set; hidden is the weighted sum (not the
// mean) of the input embedding rows. The resulting weights stay in
// m.softmaxAttn for the matching gradient pass.
func (m *Model) computeAttnHidden(input []Pair, hidden *linalg.Vector) {
	m.attnLogits(input, func(p Pair) float64 {
		return m.attn.At(p.Feature, p.Position) + m.bias.Data[p.Position]
	})
	m.pool(input, hidden)
}

// computeAttnHiddenTarget pools with target-view attention: logits come
// from the target class's attention row, modeling attention from the
// classifier's perspective rather than the context's.
func (m *Model) computeAttnHiddenTarget(input []Pair, target int, hidden *linalg.Vector) {
	m.attnLogits(input, func(p Pair) float64 {
		return m.attn.At(target, p.Position) + m.bias.Data[p.Position]
	})
	m.pool(input, hidden)
}

// attnLogits fills m.softmaxAttn with the stable softmax of logit(p) over
// the input set.
func (m *Model) attnLogits(input []Pair, logit func(Pair) float64) {
	m.softmaxAttn = m.softmaxAttn[:0]
	max := math.Inf(-1)
	for _, p := range input {
		a := logit(p)
		if a > max {
			max = a
		}
		m.softmaxAttn = append(m.softmaxAttn, a)
	}
	sum := 0.0
	for i, a := range m.softmaxAttn {
		if a-max < attnUnderflow {
			m.softmaxAttn[i] = 0
		} else {
			m.softmaxAttn[i] = math.Exp(a - max)
		}
		sum += m.softmaxAttn[i]
	}
	for i := range m.softmaxAttn {
		m.softmaxAttn[i] /= sum
	}
}

func (m *Model) pool(input []Pair, hidden *linalg.Vector) {
	if hidden.Size() != m.hsz {
		panic(fmt.Sprintf("model: hidden size %d does not match dim %d", hidden.Size(), m.hsz))
	}
	hidden.Zero()
	for i, p := range input {
		hidden.AddRow(m.wi, p.Feature, m.softmaxAttn[i])
	}
}

// computeAttnGradient folds the loss gradient back through context-view
// attention: every input embedding row receives weight*|input| times the
// gradient, and the pair's attention entry and position bias receive
//
//	g = weight * (dot(wi[feature], grad) - dot(hidden, grad))
//
// The exact softmax Jacobian would additionally scale g by
// weight*(1-weight); the simplification is deliberate and kept for
// behavioral fidelity.
func (m *Model) computeAttnGradient(input []Pair, grad *linalg.Vector) {
	m.foldAttnGradient(input, grad, func(p Pair, g float64) {
		m.attn.Add(p.Feature, p.Position, g)
	})
}

// computeAttnGradientTarget is the target-view counterpart: the attention
// update lands on the target class's row.
func (m *Model) computeAttnGradientTarget(input []Pair, target int, grad *linalg.Vector) {
	m.foldAttnGradient(input, grad, func(p Pair, g float64) {
		m.attn.Add(target, p.Position, g)
	})
}

func (m *Model) foldAttnGradient(input []Pair, grad *linalg.Vector, addAttn func(Pair, float64)) {
	if grad.Size() != m.hsz {
		panic(fmt.Sprintf("model: gradient size %d does not match dim %d", grad.Size(), m.hsz))
	}
	n := float64(len(input))
	hiddenDot := grad.Dot(m.hidden)
	for i, p := range input {
		w := m.softmaxAttn[i]
		g := w * (m.wi.DotRow(grad, p.Feature) - hiddenDot)
		m.wi.AddRow(grad, p.Feature, w*n)
		addAttn(p, g)
		m.bias.Data[p.Position] += g
	}
}
