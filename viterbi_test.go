package hmm

import (
	"math"
	"testing"
)

func TestViterbiNeverExceedsForward(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.2, 4.9, -0.1, 5.2}
	fwd := LogProbability(m, seq)
	vlp, path := m.Viterbi(seq)
	if path == nil {
		t.Fatal("expected a non-nil Viterbi path")
	}
	if vlp > fwd+1e-9 {
		t.Errorf("Viterbi log-probability %v exceeds forward log-probability %v", vlp, fwd)
	}
}

func TestViterbiMatchesBruteForceBestPath(t *testing.T) {
	m, s1, s2 := twoStateModel(t)
	seq := []Obs{0.1, 4.8, -0.2}

	i1, _ := m.StateIndex(s1)
	i2, _ := m.StateIndex(s2)
	states := []int{i1, i2}

	best := math.Inf(-1)
	for _, p1 := range states {
		for _, p2 := range states {
			for _, p3 := range states {
				lp := PathLogProbability(m, seq, []int{p1, p2, p3})
				if lp > best {
					best = lp
				}
			}
		}
	}

	got, _ := m.Viterbi(seq)
	if math.Abs(got-best) > 1e-9 {
		t.Errorf("Viterbi = %v, brute-force best path = %v", got, best)
	}
}

func TestViterbiPathStartsAndEndsAtBoundaries(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.1, 4.8}
	_, path := m.Viterbi(seq)
	if len(path) == 0 {
		t.Fatal("expected a non-empty path")
	}
	if path[0].State != m.StartIndex() {
		t.Errorf("path starts at state %d, want start index %d", path[0].State, m.StartIndex())
	}
	if path[len(path)-1].State != m.EndIndex() {
		t.Errorf("path ends at state %d, want end index %d", path[len(path)-1].State, m.EndIndex())
	}
}

func TestViterbiImpossibleSequence(t *testing.T) {
	b := NewBuilder("tight")
	s := NewState("s", NewUniform(0, 1))
	b.AddTransition(b.Start, s, 1)
	b.AddTransition(s, b.End, 1)
	m, err := Bake(b, BakeOptions{})
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	lp, path := m.Viterbi([]Obs{5.0})
	if !math.IsInf(lp, -1) || path != nil {
		t.Errorf("Viterbi(out-of-support) = (%v, %v), want (-Inf, nil)", lp, path)
	}
}
