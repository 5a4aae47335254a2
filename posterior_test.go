package hmm

import "testing"

func TestMaximumAPosterioriBoundaries(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.1, 4.8, -0.2}
	_, path := MaximumAPosteriori(m, seq)
	if len(path) != len(seq)+2 {
		t.Fatalf("path length = %d, want %d (start + one per observation + end)", len(path), len(seq)+2)
	}
	if path[0].State != m.StartIndex() {
		t.Errorf("path[0] = %d, want start index %d", path[0].State, m.StartIndex())
	}
	if path[len(path)-1].State != m.EndIndex() {
		t.Errorf("path[-1] = %d, want end index %d", path[len(path)-1].State, m.EndIndex())
	}
}

func TestMaximumAPosterioriMatchesPerTimestepArgmax(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seq := []Obs{0.1, 4.8, -0.2, 5.3}
	_, path := MaximumAPosteriori(m, seq)
	_, W := ForwardBackward(m, seq)

	for t0 := 0; t0 < len(seq); t0++ {
		best := -1
		bestW := -1.0
		for i := 0; i < m.SilentStart(); i++ {
			if W.At(t0, i) > bestW {
				bestW = W.At(t0, i)
				best = i
			}
		}
		got := path[t0+1].State
		if got != best {
			t.Errorf("timestep %d: MAP chose state %d, argmax(W) chose %d", t0, got, best)
		}
	}
}
