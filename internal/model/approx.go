package model

import "math"

// Lookup-table sizes and domains for the approximated transcendentals. The
// tables are the only source of transcendental approximation error in the
// core; the error is bounded by table resolution.
const (
	sigmoidTableSize = 512
	maxSigmoid       = 8
	logTableSize     = 512
)

func (m *Model) initSigmoid() {
	m.sigmoidTable = make([]float64, sigmoidTableSize+1)
	for i := range m.sigmoidTable {
		x := float64(i*2*maxSigmoid)/sigmoidTableSize - maxSigmoid
		m.sigmoidTable[i] = 1.0 / (1.0 + math.Exp(-x))
	}
}

func (m *Model) initLog() {
	m.logTable = make([]float64, logTableSize+1)
	for i := range m.logTable {
		x := (float64(i) + 1e-5) / logTableSize
		m.logTable[i] = math.Log(x)
	}
}

// sigmoid returns the table approximation of the logistic function, clamped
// to exactly 0 below -maxSigmoid and 1 above +maxSigmoid.
func (m *Model) sigmoid(x float64) float64 {
	if x < -maxSigmoid {
		return 0.0
	}
	if x > maxSigmoid {
		return 1.0
	}
	i := int((x + maxSigmoid) * sigmoidTableSize / maxSigmoid / 2)
	return m.sigmoidTable[i]
}

// log returns the table approximation of the natural log on (0,1]. Inputs
// above 1 return 0, guarding against probabilities that drift slightly over
// 1 from floating error.
func (m *Model) log(x float64) float64 {
	if x > 1.0 {
		return 0.0
	}
	i := int(x * logTableSize)
	return m.logTable[i]
}
