package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Backward computes b[0..n][0..|S|), the log probability of the
// remaining observations given that the model is in state i at
// prefix length t. It mirrors Forward with silent states relaxed
// high-to-low instead of low-to-high. For an infinite model the last
// row instead holds each emitting state's log probability of the final
// observation.
func Backward(m *Model, seq []Obs) *Matrix {
	b, _ := backwardScaled(m, newEmissionCache(m, seq), len(seq))
	return b
}

func backwardScaled(m *Model, cache *emissionCache, n int) (b *Matrix, logScale []float64) {
	ns := m.NumStates()
	b = newMatrix(n+1, ns)
	logScale = make([]float64, n+1)

	rowN := make([]float64, ns)
	for i := range rowN {
		rowN[i] = math.Inf(-1)
	}
	if m.finite {
		rowN[m.endIndex] = 0
		// Mirror of the forward pass's row-0 relaxation: every other
		// state's last-row value is its probability of reaching End
		// through silent states without emitting again. Descending
		// index order resolves silent states before emitting ones.
		none := make([]float64, ns)
		for i := range none {
			none[i] = math.Inf(-1)
		}
		for l := ns - 1; l >= 0; l-- {
			if l != m.endIndex {
				rowN[l] = sumOutEdgesBackward(m, l, rowN, none, cache, n)
			}
		}
	} else if n > 0 {
		for i := 0; i < m.silentStart; i++ {
			rowN[i] = cache.at(n-1, i)
		}
	}
	logScale[n] = rescaleRow(rowN)
	copy(b.row(n), rowN)

	next := rowN
	for t := n - 1; t >= 0; t-- {
		cur := make([]float64, ns)
		for i := range cur {
			cur[i] = math.Inf(-1)
		}
		relaxSilentBackward(m, cur, next, cache, t)
		relaxEmittingBackward(m, cur, next, cache, t)
		logScale[t] = rescaleRow(cur)
		copy(b.row(t), cur)
		next = cur
	}

	unscaleRows(b, logScale, backwardCumulative)
	return b, logScale
}

// relaxSilentBackward fills in rowT's silent entries in reverse
// topological (decreasing index) order: a silent state's out-edges
// either reach a higher-indexed silent state (already resolved this
// sweep) or an emitting state (resolved from rowTplus1 combined with
// the emission cache at t).
func relaxSilentBackward(m *Model, rowT, rowTplus1 []float64, cache *emissionCache, t int) {
	for l := m.NumStates() - 1; l >= m.silentStart; l-- {
		rowT[l] = sumOutEdgesBackward(m, l, rowT, rowTplus1, cache, t)
	}
}

// relaxEmittingBackward fills in rowT's emitting entries, which may
// depend on rowT's own (already-resolved) silent entries as well as
// rowTplus1's emitting entries combined with the emission cache.
func relaxEmittingBackward(m *Model, rowT, rowTplus1 []float64, cache *emissionCache, t int) {
	for l := 0; l < m.silentStart; l++ {
		rowT[l] = sumOutEdgesBackward(m, l, rowT, rowTplus1, cache, t)
	}
}

func sumOutEdgesBackward(m *Model, l int, rowT, rowTplus1 []float64, cache *emissionCache, t int) float64 {
	targets, logP, _ := m.outEdges(l)
	terms := make([]float64, 0, len(targets))
	for j, s := range targets {
		if s >= m.silentStart {
			v := rowT[s]
			if !math.IsInf(v, -1) {
				terms = append(terms, v+logP[j])
			}
		} else {
			v := rowTplus1[s]
			if !math.IsInf(v, -1) {
				terms = append(terms, v+cache.at(t, s)+logP[j])
			}
		}
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}
