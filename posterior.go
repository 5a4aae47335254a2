package hmm

import "math"

// MaximumAPosteriori computes W exactly as ForwardBackward, then
// emits argmax_i W[t,i] per observation, prefixed by start and
// suffixed by end. Because each timestep is decoded independently,
// the returned path may contain transitions the model does not allow.
func MaximumAPosteriori(m *Model, seq []Obs) (logProb float64, path []PathStep) {
	f := Forward(m, seq)
	n := len(seq)
	logProb = sequenceLogProbability(m, f, n)
	if math.IsInf(logProb, -1) {
		return logProb, nil
	}

	_, W := ForwardBackward(m, seq)

	steps := make([]PathStep, 0, n+2)
	steps = append(steps, PathStep{T: 0, State: m.startIndex})
	for t := 0; t < n; t++ {
		best := -1
		bestW := -1.0
		for i := 0; i < m.silentStart; i++ {
			if W.At(t, i) > bestW {
				bestW = W.At(t, i)
				best = i
			}
		}
		steps = append(steps, PathStep{T: t + 1, State: best})
	}
	steps = append(steps, PathStep{T: n, State: m.endIndex})
	return logProb, steps
}
