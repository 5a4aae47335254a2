package hmm

import (
	"math"
	"testing"
)

func TestBackwardFiniteModelEndCondition(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.1, 4.8}
	b := Backward(m, seq)
	if v := b.At(len(seq), m.EndIndex()); v != 0 {
		t.Errorf("b[n, end] = %v, want 0", v)
	}
	for i := 0; i < m.SilentStart(); i++ {
		if v := b.At(len(seq), i); !math.IsInf(v, -1) {
			t.Errorf("b[n, %d] = %v, want -Inf for a finite model's emitting states", i, v)
		}
	}
}

func TestBackwardAgreesWithForwardAtEveryPrefix(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.2, 5.0, -0.3, 4.7}
	f := Forward(m, seq)
	b := Backward(m, seq)
	full := f.At(len(seq), m.EndIndex())

	for t0 := 0; t0 <= len(seq); t0++ {
		// After t0 >= 1 observations every path sits in exactly one
		// emitting state, so summing f+b over the emitting states counts
		// each path once (End, reached in the same row at t0 = n, would
		// count it a second time). Before any observation that state is
		// Start.
		lo, hi := 0, m.SilentStart()
		if t0 == 0 {
			lo, hi = m.StartIndex(), m.StartIndex()+1
		}
		var combined float64 = math.Inf(-1)
		for i := lo; i < hi; i++ {
			fv := f.At(t0, i)
			bv := b.At(t0, i)
			if math.IsInf(fv, -1) || math.IsInf(bv, -1) {
				continue
			}
			combined = lse(combined, fv+bv)
		}
		if math.Abs(combined-full) > 1e-6 {
			t.Errorf("prefix %d: f.b combined = %v, want %v", t0, combined, full)
		}
	}
}
