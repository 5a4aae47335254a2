package hmm

import (
	"math"
	"math/rand"
	"testing"
)

func TestMixtureLogProbabilityMatchesHandComputedLSE(t *testing.T) {
	a := NewNormal(0, 1)
	b := NewNormal(5, 1)
	m := NewMixture([]Distribution{a, b}, []float64{0.25, 0.75})

	x := 2.0
	want := lse(math.Log(0.25)+a.LogProbability(x), math.Log(0.75)+b.LogProbability(x))
	if got := m.LogProbability(x); math.Abs(got-want) > 1e-9 {
		t.Errorf("Mixture.LogProbability(%v) = %v, want %v", x, got, want)
	}
}

func TestMixtureSampleDelegatesToWeightedChild(t *testing.T) {
	far := NewNormal(1000, 0.001)
	near := NewNormal(0, 0.001)
	m := NewMixture([]Distribution{far, near}, []float64{0, 1})
	gen := rand.New(rand.NewSource(5))
	for i := 0; i < 20; i++ {
		v := m.Sample(gen).(float64)
		if math.Abs(v) > 1 {
			t.Fatalf("sample %v should come from the near-zero component", v)
		}
	}
}

func TestMixtureFitWeightedIncreasesLikelihood(t *testing.T) {
	gen := rand.New(rand.NewSource(9))
	genA := NewNormal(-3, 1)
	genB := NewNormal(3, 1)
	n := 2000
	var samples []Obs
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			samples = append(samples, genA.Sample(gen))
		} else {
			samples = append(samples, genB.Sample(gen))
		}
	}
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1
	}

	m := NewMixture([]Distribution{NewNormal(-1, 2), NewNormal(1, 2)}, []float64{0.5, 0.5})
	before := totalLogLikelihood(m, samples)
	for i := 0; i < 5; i++ {
		m.FitWeighted(samples, weights)
	}
	after := totalLogLikelihood(m, samples)
	if after <= before {
		t.Errorf("EM did not increase likelihood: before=%v after=%v", before, after)
	}
}

func totalLogLikelihood(d Distribution, samples []Obs) float64 {
	var sum float64
	for _, s := range samples {
		sum += d.LogProbability(s)
	}
	return sum
}
