package hmm

import (
	"math"
	"math/rand"
	"testing"
)

func TestUniformLogProbability(t *testing.T) {
	u := NewUniform(0, 2)
	if lp := u.LogProbability(1.0); math.Abs(lp-math.Log(0.5)) > 1e-9 {
		t.Errorf("LogProbability(1.0) = %v, want %v", lp, math.Log(0.5))
	}
	if lp := u.LogProbability(3.0); !math.IsInf(lp, -1) {
		t.Errorf("LogProbability(3.0) = %v, want -Inf", lp)
	}
	if lp := u.LogProbability("not a float"); !math.IsInf(lp, -1) {
		t.Errorf("LogProbability(non-float) = %v, want -Inf", lp)
	}
}

func TestUniformFitWeighted(t *testing.T) {
	u := NewUniform(0, 1)
	samples := []Obs{1.0, 5.0, -2.0, 3.0}
	weights := []float64{1, 1, 1, 0}
	u.FitWeighted(samples, weights)
	if u.A != -2 || u.B != 5 {
		t.Errorf("FitWeighted gave (%v, %v), want (-2, 5)", u.A, u.B)
	}
}

func TestNormalLogProbabilityAtMean(t *testing.T) {
	n := NewNormal(0, 1)
	want := -0.5 * math.Log(2*math.Pi)
	if lp := n.LogProbability(0.0); math.Abs(lp-want) > 1e-9 {
		t.Errorf("LogProbability(0) = %v, want %v", lp, want)
	}
}

func TestNormalFitWeightedRecoversParameters(t *testing.T) {
	gen := rand.New(rand.NewSource(7))
	truth := NewNormal(3, 2)
	n := 5000
	samples := make([]Obs, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = truth.Sample(gen)
		weights[i] = 1
	}
	fit := NewNormal(0, 1)
	fit.FitWeighted(samples, weights)
	if math.Abs(fit.Mu-3) > 0.2 {
		t.Errorf("fit Mu = %v, want near 3", fit.Mu)
	}
	if math.Abs(fit.Sigma-2) > 0.2 {
		t.Errorf("fit Sigma = %v, want near 2", fit.Sigma)
	}
}

func TestExponentialFitWeighted(t *testing.T) {
	gen := rand.New(rand.NewSource(11))
	truth := NewExponential(0.5)
	n := 5000
	samples := make([]Obs, n)
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		samples[i] = truth.Sample(gen)
		weights[i] = 1
	}
	fit := NewExponential(1)
	fit.FitWeighted(samples, weights)
	if math.Abs(fit.Lambda-0.5) > 0.05 {
		t.Errorf("fit Lambda = %v, want near 0.5", fit.Lambda)
	}
}

func TestCloneUntiedIndependence(t *testing.T) {
	n := NewNormal(1, 1)
	clone := n.CloneUntied().(*Normal)
	clone.Mu = 99
	if n.Mu == 99 {
		t.Errorf("CloneUntied shares state with the original")
	}
}

func TestLambdaIsNotSamplerOrFitter(t *testing.T) {
	l := NewLambda("custom", func(x Obs) float64 {
		if x == "a" {
			return 0
		}
		return math.Inf(-1)
	})
	if _, ok := Distribution(l).(Sampler); ok {
		t.Error("Lambda must not implement Sampler")
	}
	if _, ok := Distribution(l).(Fitter); ok {
		t.Error("Lambda must not implement Fitter")
	}
	if lp := l.LogProbability("a"); lp != 0 {
		t.Errorf("LogProbability(a) = %v, want 0", lp)
	}
}
