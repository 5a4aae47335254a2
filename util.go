package hmm

import (
	"math"
	"math/rand"
)

// lse is the log-sum-exp primitive used throughout the package: it
// combines two log-domain values without leaving log space.
//
// lse(-Inf, y) == y and lse(+Inf, _) == +Inf, matching the conventions
// the silent-state relaxations and row rescales rely on when one side
// of the sum is an as-yet-unreached state.
func lse(x, y float64) float64 {
	if math.IsInf(x, -1) {
		return y
	}
	if math.IsInf(y, -1) {
		return x
	}
	if math.IsInf(x, 1) || math.IsInf(y, 1) {
		return math.Inf(1)
	}
	m := math.Max(x, y)
	return m + math.Log1p(math.Exp(-math.Abs(x-y)))
}

// sampleIndex samples an index from the list, given the probability of
// each index. A nil gen falls back to the global math/rand source.
func sampleIndex(gen *rand.Rand, probs []float64) int {
	if len(probs) == 0 {
		panic("hmm: cannot sample from empty distribution")
	}
	var offset float64
	if gen == nil {
		offset = rand.Float64()
	} else {
		offset = gen.Float64()
	}
	for i, p := range probs {
		offset -= p
		if offset < 0 {
			return i
		}
	}
	return len(probs) - 1
}

// roundTo8 rounds x to 8 decimal places. The baker's outgoing
// normalization and silent-merge steps compare probabilities at this
// fixed precision.
func roundTo8(x float64) float64 {
	const scale = 1e8
	return math.Round(x*scale) / scale
}
