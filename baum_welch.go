package hmm

import (
	"context"
	"math"
)

// BaumWelch runs EM on m in place against seqs: each
// iteration accumulates expected transitions and weighted emission
// samples across every sequence via forward+backward, applies the
// edge update rule once, and refits each tied distribution class once
// on the pooled samples. It iterates while the per-iteration
// log-probability improvement exceeds opts.StopThreshold and
// iter < opts.MaxIterations, running at least opts.MinIterations
// times, and returns the total improvement over the starting
// log-probability. ctx may be nil; when non-nil, a canceled context
// stops the loop after the current iteration completes.
func BaumWelch(ctx context.Context, m *Model, seqs [][]Obs, opts TrainOptions) float64 {
	total := 0.0
	prevLogP := totalLogProbability(m, seqs)

	for iter := 0; ; iter++ {
		E := newMatrix(m.NumStates(), m.NumStates())
		pending := make([][]weightedSample, m.silentStart)

		for si, seq := range seqs {
			seqE, W, logP := forwardBackward(m, seq, true)
			if math.IsInf(logP, -1) {
				opts.warnf("hmm: sequence %d is impossible under the model; skipping", si)
				continue
			}
			for i, v := range seqE.Data {
				E.Data[i] += v
			}
			collectWeighted(m, seq, W, opts, pending)
		}

		applyEdgeUpdate(m, E, opts)
		refitDistributions(m, pending)

		newLogP := totalLogProbability(m, seqs)
		improvement := newLogP - prevLogP
		total += improvement
		prevLogP = newLogP

		if iter+1 >= opts.MinIterations {
			if improvement <= opts.StopThreshold || iter+1 >= opts.MaxIterations {
				break
			}
		} else if iter+1 >= opts.MaxIterations {
			break
		}
		if ctxDone(ctx) {
			break
		}
	}
	return total
}

func totalLogProbability(m *Model, seqs [][]Obs) float64 {
	var sum float64
	for _, seq := range seqs {
		lp := LogProbability(m, seq)
		if math.IsInf(lp, -1) {
			continue
		}
		sum += lp
	}
	return sum
}
