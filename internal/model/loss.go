package model

import (
	"math"

	"github.com/weft-ml/weft/internal/linalg"
)

// binaryLogistic runs one logistic step against a single output row: score
// the row against the hidden vector, accumulate the error into the gradient
// buffer and into the row itself, and return the negative log-likelihood of
// the label. This is the atomic unit shared by hierarchical softmax and
// negative sampling.
func (m *Model) binaryLogistic(target int, label bool, lr float64) float64 {
	score := m.sigmoid(m.wo.DotRow(m.hidden, target))
	y := 0.0
	if label {
		y = 1.0
	}
	alpha := lr * (y - score)
	m.grad.AddRow(m.wo, target, alpha)
	m.wo.AddRow(m.hidden, target, alpha)
	if label {
		return -m.log(score)
	}
	return -m.log(1.0 - score)
}

// negativeSampling runs one positive step against the target and cfg.Neg
// negative steps against sampled non-target classes.
func (m *Model) negativeSampling(target int, lr float64) float64 {
	loss := 0.0
	m.grad.Zero()
	for n := 0; n <= m.cfg.Neg; n++ {
		if n == 0 {
			loss += m.binaryLogistic(target, true, lr)
		} else {
			loss += m.binaryLogistic(m.getNegative(target), false, lr)
		}
	}
	return loss
}

// hierarchicalSoftmax walks the target leaf's cached (path, code) and runs
// one binary logistic step per tree edge.
func (m *Model) hierarchicalSoftmax(target int, lr float64) float64 {
	loss := 0.0
	m.grad.Zero()
	code := m.codes[target]
	path := m.paths[target]
	for i := range path {
		loss += m.binaryLogistic(path[i], code[i], lr)
	}
	return loss
}

// softmax runs one exact full-softmax step over all V classes. O(V*H),
// unlike the other strategies.
func (m *Model) softmax(target int, lr float64) float64 {
	m.grad.Zero()
	m.computeOutputSoftmax(m.hidden, m.output)
	for i := 0; i < m.osz; i++ {
		label := 0.0
		if i == target {
			label = 1.0
		}
		alpha := lr * (label - m.output.Data[i])
		m.grad.AddRow(m.wo, i, alpha)
		m.wo.AddRow(m.hidden, i, alpha)
	}
	return -m.log(m.output.Data[target])
}

// computeOutputSoftmax fills output with softmax(wo * hidden), subtracting
// the maximum score before exponentiating for numerical stability.
func (m *Model) computeOutputSoftmax(hidden, output *linalg.Vector) {
	output.MulMatVec(m.wo, hidden)
	max := output.Data[0]
	for _, v := range output.Data {
		if v > max {
			max = v
		}
	}
	z := 0.0
	for i, v := range output.Data {
		e := math.Exp(v - max)
		output.Data[i] = e
		z += e
	}
	for i := range output.Data {
		output.Data[i] /= z
	}
}
