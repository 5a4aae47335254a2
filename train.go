package hmm

import (
	"context"
	"fmt"
	"math"
)

// Algorithm selects a training algorithm for Train.
type Algorithm string

const (
	AlgorithmBaumWelch Algorithm = "baum-welch"
	AlgorithmViterbi   Algorithm = "viterbi"
	AlgorithmLabelled  Algorithm = "labelled"
)

// TrainOptions holds the knobs shared across Baum-Welch, Viterbi
// hard-EM and the labelled trainer.
type TrainOptions struct {
	// TransitionPseudocount is added to every edge's expected count
	// before normalization.
	TransitionPseudocount float64

	// UsePseudocount gates whether each edge's own stored pseudocount
	// additionally contributes to its update.
	UsePseudocount bool

	// EdgeInertia mixes the old and new outgoing probability,
	// out_log_p[k,l] <- log(exp(old)*inertia + new_p*(1-inertia)). Must
	// be in [0, 1].
	EdgeInertia float64

	// EmittedProbabilityThreshold is the minimum posterior weight an
	// observation must carry to be kept as a training sample for
	// distribution fitting.
	EmittedProbabilityThreshold float64

	// MinIterations and MaxIterations bound Baum-Welch's loop.
	// ViterbiTrain and Labelled ignore them, running exactly once.
	MinIterations int
	MaxIterations int

	// StopThreshold ends Baum-Welch early once the per-iteration
	// log-probability improvement falls to or below it.
	StopThreshold float64

	// Warnf receives training diagnostics, currently just notices
	// about skipped impossible sequences. A nil Warnf is a no-op.
	Warnf func(format string, args ...interface{})
}

func (o TrainOptions) warnf(format string, args ...interface{}) {
	if o.Warnf != nil {
		o.Warnf(format, args...)
	}
}

// weightedSample is one (observation, posterior weight) pair queued
// for a distribution's next FitWeighted call.
type weightedSample struct {
	obs    Obs
	weight float64
}

// applyEdgeUpdate renormalizes m's outgoing probabilities in place
// from accumulated expected transition counts E, adding pseudocounts
// and mixing with the old value by EdgeInertia. A source state whose
// normalizer is zero (no expected mass, no pseudocount) is left
// unchanged.
func applyEdgeUpdate(m *Model, E *Matrix, opts TrainOptions) {
	ns := m.NumStates()
	for k := 0; k < ns; k++ {
		targets, oldLogP, pc := m.outEdges(k)
		if len(targets) == 0 {
			continue
		}
		var norm float64
		expected := make([]float64, len(targets))
		for j, l := range targets {
			e := E.At(k, l)
			if opts.UsePseudocount {
				e += pc[j]
			}
			e += opts.TransitionPseudocount
			expected[j] = e
			norm += e
		}
		if norm <= 0 {
			continue
		}
		for j := range targets {
			newP := expected[j] / norm
			mixed := math.Exp(oldLogP[j])*opts.EdgeInertia + newP*(1-opts.EdgeInertia)
			var newLogP float64
			if mixed <= 0 {
				newLogP = math.Inf(-1)
			} else {
				newLogP = math.Log(mixed)
			}
			m.setOutLogP(k, j, newLogP)
		}
	}
}

// refitDistributions groups queued samples by tie class and calls
// FitWeighted exactly once per class on the pooled (observation,
// weight) list.
func refitDistributions(m *Model, pending [][]weightedSample) {
	done := make([]bool, m.silentStart)
	for i := 0; i < m.silentStart; i++ {
		if done[i] {
			continue
		}
		class := append([]int{i}, m.TieMembers(i)...)
		for _, j := range class {
			done[j] = true
		}
		fitter, ok := m.states[i].Dist.(Fitter)
		if !ok {
			continue
		}
		var obs []Obs
		var weights []float64
		for _, j := range class {
			for _, s := range pending[j] {
				obs = append(obs, s.obs)
				weights = append(weights, s.weight)
			}
		}
		fitter.FitWeighted(obs, weights)
	}
}

// collectWeighted appends (seq[t], weight) to pending[i] for every
// emitting state i and timestep t whose posterior weight in W clears
// opts.EmittedProbabilityThreshold.
func collectWeighted(m *Model, seq []Obs, W *Matrix, opts TrainOptions, pending [][]weightedSample) {
	n := len(seq)
	for i := 0; i < m.silentStart; i++ {
		for t := 0; t < n; t++ {
			w := W.At(t, i)
			if w < opts.EmittedProbabilityThreshold {
				continue
			}
			pending[i] = append(pending[i], weightedSample{obs: seq[t], weight: w})
		}
	}
}

// Train runs the selected algorithm on m in place and returns the
// improvement in total log-probability over seqs. paths supplies one
// state path per sequence; it is required by AlgorithmLabelled and
// ignored by the other algorithms. ctx may be nil.
func Train(ctx context.Context, m *Model, seqs [][]Obs, paths [][]int, algorithm Algorithm, opts TrainOptions) (float64, error) {
	switch algorithm {
	case AlgorithmBaumWelch:
		return BaumWelch(ctx, m, seqs, opts), nil
	case AlgorithmViterbi:
		before := totalLogProbability(m, seqs)
		ViterbiTrain(m, seqs, opts)
		return totalLogProbability(m, seqs) - before, nil
	case AlgorithmLabelled:
		if len(paths) != len(seqs) {
			return 0, fmt.Errorf("hmm: got %d paths for %d sequences", len(paths), len(seqs))
		}
		examples := make([]LabelledExample, len(seqs))
		for i, seq := range seqs {
			examples[i] = LabelledExample{Seq: seq, Path: paths[i]}
		}
		before := totalLogProbability(m, seqs)
		Labelled(m, examples, opts)
		return totalLogProbability(m, seqs) - before, nil
	default:
		return 0, fmt.Errorf("hmm: unknown training algorithm: %q", algorithm)
	}
}

// ctxDone reports whether ctx has been canceled, the ambient
// cancellation check shared by every multi-iteration trainer.
func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
