package hmm

import (
	"math"
	"math/rand"
)

// Sample draws a random walk through m. If length > 0, exactly that
// many observations are emitted (entering the end state early is
// avoided unless it is the only outgoing edge); otherwise the walk
// runs until it reaches the end state naturally, which requires a
// finite model. gen may be nil
// to use the global generator. withPath additionally returns every
// state visited, silent transitions included.
func Sample(m *Model, length int, withPath bool, gen *rand.Rand) (obs []Obs, path []PathStep) {
	cur := m.startIndex
	t := 0
	path = append(path, PathStep{T: 0, State: cur})

	for {
		if cur == m.endIndex {
			break
		}
		if cur < m.silentStart {
			v := sampleEmission(m.states[cur].Dist, gen)
			obs = append(obs, v)
			t++
			if length > 0 && len(obs) >= length {
				break
			}
		}
		next, ok := pickNextState(m, cur, length > 0 && m.finite, gen)
		if !ok {
			break
		}
		cur = next
		path = append(path, PathStep{T: t, State: cur})
	}

	if !withPath {
		return obs, nil
	}
	return obs, path
}

// sampleEmission draws from dist if it implements Sampler. A
// non-Sampler distribution (such as Lambda) attached to an emitting
// state used for sampling is a caller error, so it panics rather than
// silently emitting garbage.
func sampleEmission(dist Distribution, gen *rand.Rand) Obs {
	s, ok := dist.(Sampler)
	if !ok {
		panic("hmm: distribution does not support sampling: " + dist.SerializerType())
	}
	return s.Sample(gen)
}

// pickNextState walks cur's outgoing edges in storage order,
// transitioning when accumulated probability exceeds a draw from
// [0, 1). When avoidEnd is set and more than one edge leaves cur, the
// end state is excluded from the draw and the remaining probabilities
// renormalized.
func pickNextState(m *Model, cur int, avoidEnd bool, gen *rand.Rand) (int, bool) {
	targets, logP, _ := m.outEdges(cur)
	if len(targets) == 0 {
		return -1, false
	}

	idxs := targets
	probs := make([]float64, len(targets))
	for i, lp := range logP {
		probs[i] = math.Exp(lp)
	}

	if avoidEnd && len(targets) > 1 {
		var ft []int
		var fp []float64
		for i, tgt := range targets {
			if tgt == m.endIndex {
				continue
			}
			ft = append(ft, tgt)
			fp = append(fp, probs[i])
		}
		if len(ft) > 0 {
			var sum float64
			for _, p := range fp {
				sum += p
			}
			if sum > 0 {
				for i := range fp {
					fp[i] /= sum
				}
				idxs, probs = ft, fp
			}
		}
	}

	return idxs[sampleIndex(gen, probs)], true
}
