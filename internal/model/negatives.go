package model

import "math"

// negativeTableSize is the total length of the flat negative-sampling table.
const negativeTableSize = 10_000_000

// initTableNegatives builds the flat sampling table: class i appears
// proportionally to sqrt(count[i]), then the whole table is shuffled once
// with the model's private rand.
func (m *Model) initTableNegatives(counts []int64) {
	z := 0.0
	for _, c := range counts {
		z += math.Sqrt(float64(c))
	}
	m.negatives = m.negatives[:0]
	for i, c := range counts {
		reps := int(math.Sqrt(float64(c)) * negativeTableSize / z)
		for j := 0; j < reps; j++ {
			m.negatives = append(m.negatives, i)
		}
	}
	m.rng.Shuffle(len(m.negatives), func(i, j int) {
		m.negatives[i], m.negatives[j] = m.negatives[j], m.negatives[i]
	})
	m.negpos = 0
}

// getNegative draws the next class from the table's cyclic cursor, rejecting
// and retrying draws equal to target.
func (m *Model) getNegative(target int) int {
	for {
		negative := m.negatives[m.negpos]
		m.negpos = (m.negpos + 1) % len(m.negatives)
		if negative != target {
			return negative
		}
	}
}
