package hmm

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestSampleDeterministicWithFixedSeed(t *testing.T) {
	m, _, _ := twoStateModel(t)
	a, _ := m.Sample(8, false, rand.New(rand.NewSource(0)))
	b, _ := m.Sample(8, false, rand.New(rand.NewSource(0)))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two samples from the same seed differ: %v vs %v", a, b)
	}
	if len(a) != 8 {
		t.Errorf("length-bounded sample returned %d observations, want 8", len(a))
	}
}

func TestSampleFiniteModelTerminatesAtEnd(t *testing.T) {
	m, _, _ := twoStateModel(t)
	gen := rand.New(rand.NewSource(3))
	_, path := m.Sample(0, true, gen)
	if len(path) == 0 {
		t.Fatal("expected a non-empty path")
	}
	if path[len(path)-1].State != m.EndIndex() {
		t.Errorf("unbounded sample from a finite model should end at End, got state %d", path[len(path)-1].State)
	}
}

func TestSampleAvoidsEarlyEndWhenAlternativeExists(t *testing.T) {
	// A model where End is reachable from the first step but an
	// alternative edge exists; with a length target, the walk should be
	// able to reach the full length without the avoid-End logic ever
	// panicking on an empty candidate set.
	m, _, _ := twoStateModel(t)
	gen := rand.New(rand.NewSource(123))
	obs, _ := m.Sample(5, false, gen)
	if len(obs) != 5 {
		t.Errorf("got %d observations, want exactly 5", len(obs))
	}
}
