package hmm

import (
	"math"
	"math/rand"
	"testing"
)

func TestGammaFitWeightedRecoversParameters(t *testing.T) {
	gen := rand.New(rand.NewSource(3))
	truth := NewGamma(4, 2)
	n := 8000
	samples := make([]Obs, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = truth.Sample(gen)
		weights[i] = 1
	}
	fit := NewGamma(1, 1)
	fit.FitWeighted(samples, weights)
	if math.Abs(fit.Alpha-4) > 0.5 {
		t.Errorf("fit Alpha = %v, want near 4", fit.Alpha)
	}
	if math.Abs(fit.Beta-2) > 0.5 {
		t.Errorf("fit Beta = %v, want near 2", fit.Beta)
	}
}

// TestInverseGammaRefit samples from an InverseGamma, refits, and
// checks that the recovered parameters land near the generating ones.
func TestInverseGammaRefit(t *testing.T) {
	gen := rand.New(rand.NewSource(0))
	truth := NewInverseGamma(10, 0.5)
	n := 10000
	samples := make([]Obs, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = truth.Sample(gen)
		weights[i] = 1
	}
	fit := NewInverseGamma(1, 1)
	fit.FitWeighted(samples, weights)
	if math.Abs(fit.Alpha()-10) > 2 {
		t.Errorf("fit Alpha = %v, want near 10", fit.Alpha())
	}
	if math.Abs(fit.Beta()-0.5) > 0.2 {
		t.Errorf("fit Beta = %v, want near 0.5", fit.Beta())
	}
}

func TestInverseGammaLogProbabilityDelegation(t *testing.T) {
	ig := NewInverseGamma(3, 1)
	g := NewGamma(3, 1)
	x := 0.7
	want := g.LogProbability(1 / x)
	if got := ig.LogProbability(x); math.Abs(got-want) > 1e-12 {
		t.Errorf("InverseGamma.LogProbability(%v) = %v, want %v", x, got, want)
	}
}
