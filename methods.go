package hmm

import (
	"context"
	"math/rand"
)

// Forward computes the forward matrix for seq under m.
func (m *Model) Forward(seq []Obs) *Matrix { return Forward(m, seq) }

// Backward computes the backward matrix for seq under m.
func (m *Model) Backward(seq []Obs) *Matrix { return Backward(m, seq) }

// LogProbability returns log P(seq | m).
func (m *Model) LogProbability(seq []Obs) float64 { return LogProbability(m, seq) }

// TotalLogProbability returns the sum of LogProbability over seqs.
func (m *Model) TotalLogProbability(seqs [][]Obs) float64 { return TotalLogProbability(m, seqs) }

// PathLogProbability returns the log probability of emitting seq along
// exactly the given state path.
func (m *Model) PathLogProbability(seq []Obs, path []int) float64 {
	return PathLogProbability(m, seq, path)
}

// Viterbi returns the most probable path explaining seq and its log
// probability.
func (m *Model) Viterbi(seq []Obs) (float64, []PathStep) { return Viterbi(m, seq) }

// ForwardBackward returns the expected transition counts and
// tie-aggregated posterior emission weights for seq.
func (m *Model) ForwardBackward(seq []Obs) (E, W *Matrix) { return ForwardBackward(m, seq) }

// ForwardBackwardUntied is ForwardBackward without tie aggregation.
func (m *Model) ForwardBackwardUntied(seq []Obs) (E, W *Matrix) {
	return ForwardBackwardUntied(m, seq)
}

// Train runs the selected training algorithm on m in place.
func (m *Model) Train(ctx context.Context, seqs [][]Obs, paths [][]int, algorithm Algorithm, opts TrainOptions) (float64, error) {
	return Train(ctx, m, seqs, paths, algorithm, opts)
}

// MaximumAPosteriori decodes seq by per-timestep posterior argmax.
func (m *Model) MaximumAPosteriori(seq []Obs) (float64, []PathStep) {
	return MaximumAPosteriori(m, seq)
}

// Sample draws a random observation sequence (and, if withPath, the
// state path that produced it) from m.
func (m *Model) Sample(length int, withPath bool, gen *rand.Rand) ([]Obs, []PathStep) {
	return Sample(m, length, withPath, gen)
}
