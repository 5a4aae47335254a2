package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Forward computes f[0..n][0..|S|), the log joint probability of
// having observed the first t symbols of seq and being in state i,
// for every prefix length t and every state i. The
// returned matrix has already had the per-row rescale inverted, so
// Forward(m, seq).At(len(seq), m.EndIndex()) (for a finite model) is
// directly comparable to Backward's result and to LogProbability.
func Forward(m *Model, seq []Obs) *Matrix {
	f, _ := forwardScaled(m, newEmissionCache(m, seq), len(seq))
	return f
}

// forwardScaled runs the forward recurrence and returns both the
// un-rescaled matrix and the per-row log scale factors.
func forwardScaled(m *Model, cache *emissionCache, n int) (f *Matrix, logScale []float64) {
	ns := m.NumStates()
	f = newMatrix(n+1, ns)
	logScale = make([]float64, n+1)

	row0 := make([]float64, ns)
	for i := range row0 {
		row0[i] = math.Inf(-1)
	}
	row0[m.startIndex] = 0
	relaxSilentForward(m, row0, m.startIndex)
	logScale[0] = rescaleRow(row0)
	copy(f.row(0), row0)

	prev := row0
	for t := 0; t < n; t++ {
		next := make([]float64, ns)
		for l := 0; l < m.silentStart; l++ {
			next[l] = cache.at(t, l) + sumInEdges(m, l, prev)
		}
		relaxSilentForward(m, next, -1)
		logScale[t+1] = rescaleRow(next)
		copy(f.row(t+1), next)
		prev = next
	}

	unscaleRows(f, logScale, forwardCumulative)
	return f, logScale
}

// relaxSilentForward fills in the silent-state entries of row (which
// must already hold final emitting-state values; its silent entries
// are overwritten before they are read) in topological (increasing
// index) order: by the time
// state l is processed, every in-edge source with a smaller index
// (necessarily true for any silent predecessor, by the bake ordering
// invariant) already holds its final value for this row. skipIndex,
// when >= 0, leaves that entry untouched (used to keep the pinned
// f[0, start] = 0 initial condition from being overwritten).
func relaxSilentForward(m *Model, row []float64, skipIndex int) {
	for l := m.silentStart; l < m.NumStates(); l++ {
		if l == skipIndex {
			continue
		}
		row[l] = sumInEdges(m, l, row)
	}
}

// sumInEdges computes lse over every in-edge of l of (row[source] +
// log-probability of the edge), skipping sources whose row value is
// -Inf.
func sumInEdges(m *Model, l int, row []float64) float64 {
	sources, logP, _ := m.inEdges(l)
	terms := make([]float64, 0, len(sources))
	for j, k := range sources {
		v := row[k]
		if math.IsInf(v, -1) {
			continue
		}
		terms = append(terms, v+logP[j])
	}
	if len(terms) == 0 {
		return math.Inf(-1)
	}
	return floats.LogSumExp(terms)
}

// rescaleRow subtracts the row's own log-sum-exp from every entry (in
// place) and returns that log-sum-exp as the row's scale factor,
// keeping magnitudes bounded on long sequences. A row that is entirely
// -Inf (an unreachable prefix) is left untouched and reports a zero
// scale.
func rescaleRow(row []float64) float64 {
	sum := floats.LogSumExp(row)
	if math.IsInf(sum, -1) {
		return 0
	}
	for i, v := range row {
		if !math.IsInf(v, -1) {
			row[i] = v - sum
		}
	}
	return sum
}

type cumulativeDirection func(logScale []float64, n int) []float64

func forwardCumulative(logScale []float64, n int) []float64 {
	cum := make([]float64, n+1)
	var running float64
	for t := 0; t <= n; t++ {
		running += logScale[t]
		cum[t] = running
	}
	return cum
}

func backwardCumulative(logScale []float64, n int) []float64 {
	cum := make([]float64, n+1)
	var running float64
	for t := n; t >= 0; t-- {
		running += logScale[t]
		cum[t] = running
	}
	return cum
}

// unscaleRows adds the cumulative scale for each row back into every
// finite entry, inverting rescaleRow's per-row subtraction so the
// final matrix holds true (unscaled) log-domain values.
func unscaleRows(mx *Matrix, logScale []float64, cumFn cumulativeDirection) {
	n := mx.Rows - 1
	cum := cumFn(logScale, n)
	for t := 0; t <= n; t++ {
		row := mx.row(t)
		add := cum[t]
		for i, v := range row {
			if !math.IsInf(v, -1) {
				row[i] = v + add
			}
		}
	}
}

// LogProbability returns the log probability of seq under m:
// f[n, EndIndex] for a finite model, or the log-sum-exp over every
// emitting state's f[n, i] for an infinite one.
func LogProbability(m *Model, seq []Obs) float64 {
	f := Forward(m, seq)
	return sequenceLogProbability(m, f, len(seq))
}

func sequenceLogProbability(m *Model, f *Matrix, n int) float64 {
	if m.finite {
		return f.At(n, m.endIndex)
	}
	acc := math.Inf(-1)
	for i := 0; i < m.silentStart; i++ {
		acc = lse(acc, f.At(n, i))
	}
	return acc
}

// TotalLogProbability returns the sum of LogProbability over seqs.
// Impossible sequences contribute -Inf to the total.
func TotalLogProbability(m *Model, seqs [][]Obs) float64 {
	var sum float64
	for _, seq := range seqs {
		sum += LogProbability(m, seq)
	}
	return sum
}

// PathLogProbability returns the log joint probability of emitting seq
// while visiting exactly the given states between start and end. path
// holds compiled state indices and may include silent states; each
// emitting entry consumes one observation. The result is -Inf when the
// path uses a missing transition, emits an off-support observation, or
// does not consume seq exactly.
func PathLogProbability(m *Model, seq []Obs, path []int) float64 {
	prev := m.startIndex
	total := 0.0
	obsIdx := 0
	for _, cur := range path {
		lp := transitionLogProb(m, prev, cur)
		if math.IsInf(lp, -1) {
			return math.Inf(-1)
		}
		total += lp
		if cur < m.silentStart {
			if obsIdx >= len(seq) {
				return math.Inf(-1)
			}
			total += m.states[cur].Dist.LogProbability(seq[obsIdx])
			obsIdx++
		}
		prev = cur
	}
	if obsIdx != len(seq) {
		return math.Inf(-1)
	}
	if m.finite {
		lp := transitionLogProb(m, prev, m.endIndex)
		if math.IsInf(lp, -1) {
			return math.Inf(-1)
		}
		total += lp
	}
	return total
}

// transitionLogProb returns the log probability of the from -> to
// edge, or -Inf when no such edge exists.
func transitionLogProb(m *Model, from, to int) float64 {
	targets, logP, _ := m.outEdges(from)
	for i, tgt := range targets {
		if tgt == to {
			return logP[i]
		}
	}
	return math.Inf(-1)
}
