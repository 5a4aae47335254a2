package hmm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ForwardBackward returns (E, W): E[k,l] is the expected number of
// k->l transitions given seq, and W[t,i] is the posterior
// probability of emitting state i having produced observation t, with
// tie classes aggregated together afterward so parameter-shared
// states report identical posteriors.
func ForwardBackward(m *Model, seq []Obs) (E, W *Matrix) {
	E, W, _ = forwardBackward(m, seq, true)
	return E, W
}

// ForwardBackwardUntied is ForwardBackward without the tie-class
// aggregation step: tied states report their individual posteriors.
func ForwardBackwardUntied(m *Model, seq []Obs) (E, W *Matrix) {
	E, W, _ = forwardBackward(m, seq, false)
	return E, W
}

func forwardBackward(m *Model, seq []Obs, tie bool) (E, W *Matrix, logP float64) {
	n := len(seq)
	cache := newEmissionCache(m, seq)
	f, _ := forwardScaled(m, cache, n)
	b, _ := backwardScaled(m, cache, n)
	logP = sequenceLogProbability(m, f, n)

	ns := m.NumStates()
	E = newMatrix(ns, ns)
	if math.IsInf(logP, -1) {
		W = newMatrix(n, m.silentStart)
		return E, W, logP
	}

	for k := 0; k < ns; k++ {
		targets, logPk, _ := m.outEdges(k)
		for j, l := range targets {
			w := logPk[j]
			var acc float64 = math.Inf(-1)
			if l < m.silentStart {
				for t := 0; t < n; t++ {
					fk := f.At(t, k)
					bl := b.At(t+1, l)
					if math.IsInf(fk, -1) || math.IsInf(bl, -1) {
						continue
					}
					acc = lse(acc, fk+w+cache.at(t, l)+bl)
				}
			} else {
				for t := 0; t <= n; t++ {
					fk := f.At(t, k)
					bl := b.At(t, l)
					if math.IsInf(fk, -1) || math.IsInf(bl, -1) {
						continue
					}
					acc = lse(acc, fk+w+bl)
				}
			}
			if math.IsInf(acc, -1) {
				E.set(k, l, 0)
			} else {
				E.set(k, l, math.Exp(acc-logP))
			}
		}
	}

	logW := newMatrix(n, m.silentStart)
	for t := 0; t < n; t++ {
		for i := 0; i < m.silentStart; i++ {
			fv := f.At(t+1, i)
			bv := b.At(t+1, i)
			if math.IsInf(fv, -1) || math.IsInf(bv, -1) {
				logW.set(t, i, math.Inf(-1))
				continue
			}
			logW.set(t, i, fv+bv-logP)
		}
	}
	if tie {
		tieAggregate(m, logW, n)
	}

	W = newMatrix(n, m.silentStart)
	for i, v := range logW.Data {
		if math.IsInf(v, -1) {
			W.Data[i] = 0
		} else {
			W.Data[i] = math.Exp(v)
		}
	}
	return E, W, logP
}

// tieAggregate replaces each tied class's log-weights at every
// timestep with their shared lse, so states sharing one distribution
// also share one posterior.
func tieAggregate(m *Model, logW *Matrix, n int) {
	done := make([]bool, m.silentStart)
	for i := 0; i < m.silentStart; i++ {
		if done[i] {
			continue
		}
		members := m.TieMembers(i)
		if len(members) == 0 {
			done[i] = true
			continue
		}
		class := append([]int{i}, members...)
		for _, j := range class {
			done[j] = true
		}
		for t := 0; t < n; t++ {
			terms := make([]float64, 0, len(class))
			for _, j := range class {
				v := logW.At(t, j)
				if !math.IsInf(v, -1) {
					terms = append(terms, v)
				}
			}
			var merged float64 = math.Inf(-1)
			if len(terms) > 0 {
				merged = floats.LogSumExp(terms)
			}
			for _, j := range class {
				logW.set(t, j, merged)
			}
		}
	}
}
