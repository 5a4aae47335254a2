package hmm

import "math"

// LabelledExample pairs an observation sequence with the exact state
// path that produced it, the input to Labelled and the intermediate
// form ViterbiTrain builds from each sequence's ML path.
type LabelledExample struct {
	Seq  []Obs
	Path []int
}

// Labelled trains m in place on exact (sequence, path) pairs:
// transition counts are taken directly from each path (including
// the implicit start -> path[0] and path[len-1] -> end edges), and
// emissions are collected per visited state and propagated into tied
// classes, then the edge update rule and one refit per tie class are
// applied.
func Labelled(m *Model, examples []LabelledExample, opts TrainOptions) {
	E := newMatrix(m.NumStates(), m.NumStates())
	pending := make([][]weightedSample, m.silentStart)

	for _, ex := range examples {
		prev := m.startIndex
		obsIdx := 0
		for _, s := range ex.Path {
			E.set(prev, s, E.At(prev, s)+1)
			if s < m.silentStart {
				if obsIdx < len(ex.Seq) {
					pending[s] = append(pending[s], weightedSample{obs: ex.Seq[obsIdx], weight: 1})
				}
				obsIdx++
			}
			prev = s
		}
		E.set(prev, m.endIndex, E.At(prev, m.endIndex)+1)
	}

	applyEdgeUpdate(m, E, opts)
	refitDistributions(m, pending)
}

// ViterbiTrain runs hard EM on m in place: it replaces each sequence's
// expectations with integer counts from its current ML (Viterbi) path,
// then delegates to Labelled. Sequences with no valid path (log
// probability -Inf) are skipped.
func ViterbiTrain(m *Model, seqs [][]Obs, opts TrainOptions) {
	var examples []LabelledExample
	for si, seq := range seqs {
		logP, steps := Viterbi(m, seq)
		if steps == nil || math.IsInf(logP, -1) {
			opts.warnf("hmm: sequence %d has no possible path; skipping", si)
			continue
		}
		examples = append(examples, LabelledExample{Seq: seq, Path: pathStatesExcludingBoundaries(m, steps)})
	}
	Labelled(m, examples, opts)
}

// pathStatesExcludingBoundaries converts a Viterbi path (which begins
// at the compiled start index and, for a finite model, ends at the
// compiled end index) into the state sequence Labelled expects: every
// state visited strictly between them, since Labelled adds the
// start/end edges itself.
func pathStatesExcludingBoundaries(m *Model, steps []PathStep) []int {
	var out []int
	for _, s := range steps {
		if s.State == m.startIndex || s.State == m.endIndex {
			continue
		}
		out = append(out, s.State)
	}
	return out
}
