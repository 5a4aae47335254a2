package hmm

import "math"

// Viterbi returns the single most probable state path explaining seq
// and its log probability: the forward recurrence with lse replaced by
// max, plus an emitting-state log-weight bias and a traceback table.
// It returns (-Inf, nil) if no path explains seq.
func Viterbi(m *Model, seq []Obs) (logProb float64, path []PathStep) {
	n := len(seq)
	cache := newEmissionCache(m, seq)
	ns := m.NumStates()

	score := newMatrix(n+1, ns)
	// back[t][l] is the predecessor index within the compiled state
	// space; backT[t][l] is 0 if the predecessor's row is t (a silent
	// relaxation within the same timestep) or 1 if it is t-1 (a normal
	// transition consuming an observation). A value of -1 means
	// unreachable.
	back := make([][]int, n+1)
	backT := make([][]int, n+1)
	for t := range back {
		back[t] = make([]int, ns)
		backT[t] = make([]int, ns)
		for i := range back[t] {
			back[t][i] = -1
		}
	}

	row0 := score.row(0)
	for i := range row0 {
		row0[i] = math.Inf(-1)
	}
	row0[m.startIndex] = 0
	relaxSilentViterbi(m, row0, back[0], backT[0], 0, m.startIndex)

	for t := 0; t < n; t++ {
		prev := score.row(t)
		cur := score.row(t + 1)
		for l := 0; l < m.silentStart; l++ {
			best := math.Inf(-1)
			bestSrc := -1
			sources, logP, _ := m.inEdges(l)
			for j, k := range sources {
				v := prev[k]
				if math.IsInf(v, -1) {
					continue
				}
				cand := v + logP[j]
				if cand > best {
					best = cand
					bestSrc = k
				}
			}
			if bestSrc < 0 {
				cur[l] = math.Inf(-1)
				continue
			}
			cur[l] = best + cache.at(t, l) + m.stateLogWeight[l]
			back[t+1][l] = bestSrc
			backT[t+1][l] = 1
		}
		relaxSilentViterbi(m, cur, back[t+1], backT[t+1], t+1, -1)
	}

	end := sequenceFinalIndex(m)
	finalScore, finalIdx := bestTerminal(m, score.row(n), end)
	if finalIdx < 0 {
		return math.Inf(-1), nil
	}

	var steps []PathStep
	t, idx := n, finalIdx
	for {
		steps = append(steps, PathStep{T: t, State: idx})
		pred := back[t][idx]
		pt := backT[t][idx]
		if pred < 0 {
			break
		}
		if pt == 1 {
			t--
		}
		idx = pred
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return finalScore, steps
}

// relaxSilentViterbi mirrors relaxSilentForward, replacing lse with
// argmax and recording the winning predecessor in back/backT.
func relaxSilentViterbi(m *Model, row []float64, back, backT []int, t, skipIndex int) {
	for l := m.silentStart; l < m.NumStates(); l++ {
		if l == skipIndex {
			continue
		}
		sources, logP, _ := m.inEdges(l)
		best := math.Inf(-1)
		bestSrc := -1
		for j, k := range sources {
			v := row[k]
			if math.IsInf(v, -1) {
				continue
			}
			cand := v + logP[j]
			if cand > best {
				best = cand
				bestSrc = k
			}
		}
		if bestSrc < 0 {
			row[l] = math.Inf(-1)
			continue
		}
		row[l] = best
		back[l] = bestSrc
		backT[l] = 0
	}
}

func sequenceFinalIndex(m *Model) int {
	if m.finite {
		return m.endIndex
	}
	return -1
}

// bestTerminal picks the winning final state: end, for a finite model,
// or the best-scoring emitting state otherwise.
func bestTerminal(m *Model, row []float64, end int) (float64, int) {
	if end >= 0 {
		v := row[end]
		if math.IsInf(v, -1) {
			return math.Inf(-1), -1
		}
		return v, end
	}
	best := math.Inf(-1)
	bestIdx := -1
	for i := 0; i < m.silentStart; i++ {
		if row[i] > best {
			best = row[i]
			bestIdx = i
		}
	}
	return best, bestIdx
}
