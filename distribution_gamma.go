package hmm

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// Gamma is the shape/rate parameterized gamma distribution: Alpha is
// the shape, Beta is the rate.
type Gamma struct {
	Alpha, Beta float64
}

// NewGamma creates a Gamma(alpha, beta) distribution.
func NewGamma(alpha, beta float64) *Gamma {
	if alpha <= 0 || beta <= 0 {
		panic(&DomainError{Err: errors.New("Gamma requires alpha > 0 and beta > 0")})
	}
	return &Gamma{Alpha: alpha, Beta: beta}
}

func (g *Gamma) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok || x <= 0 {
		return math.Inf(-1)
	}
	lgamma, _ := math.Lgamma(g.Alpha)
	return g.Alpha*math.Log(g.Beta) - lgamma + (g.Alpha-1)*math.Log(x) - g.Beta*x
}

func (g *Gamma) Sample(gen *rand.Rand) Obs {
	d := distuv.Gamma{Alpha: g.Alpha, Beta: g.Beta, Src: randSource(gen)}
	return d.Rand()
}

// FitWeighted performs numerical MLE: Newton-Raphson on Alpha, seeded
// from the closed-form approximation when the sufficient statistic
// s = log(mean) - mean(log) is positive and iterated against gonum's
// Digamma/Trigamma, then the analytic update for Beta. An iterate that
// escapes to 0 or +-Inf is reseeded uniformly in (0, 1).
func (g *Gamma) FitWeighted(samples []Obs, weights []float64) {
	xs := floatSamples(samples)
	mean, logMean, totalW := weightedMeanAndLogMean(xs, weights)
	if totalW <= 0 || mean <= 0 {
		return
	}
	s := math.Log(mean) - logMean

	alpha := g.Alpha
	if s > 0 {
		alpha = (3 - s + math.Sqrt((s-3)*(s-3)+24*s)) / (12 * s)
	}
	if alpha <= 0 || math.IsInf(alpha, 0) || math.IsNaN(alpha) {
		alpha = rand.Float64()
	}

	for iter := 0; iter < 1000; iter++ {
		f := math.Log(alpha) - mathext.Digamma(alpha) - s
		// Trigamma(alpha) is the Hurwitz zeta function at (2, alpha).
		fp := 1/alpha - mathext.Zeta(2, alpha)
		if fp == 0 {
			break
		}
		delta := f / fp
		alpha -= delta
		if alpha <= 0 || math.IsInf(alpha, 0) || math.IsNaN(alpha) {
			alpha = rand.Float64()
		}
		if math.Abs(delta) < 1e-9 {
			break
		}
	}

	var sumWX float64
	for i, x := range xs {
		if math.IsNaN(x) || i >= len(weights) || weights[i] <= 0 {
			continue
		}
		sumWX += x * weights[i]
	}
	if sumWX <= 0 {
		return
	}
	g.Alpha = alpha
	g.Beta = totalW / (alpha * sumWX)
}

func (g *Gamma) CloneUntied() Distribution { return &Gamma{Alpha: g.Alpha, Beta: g.Beta} }

func (g *Gamma) SerializerType() string { return "hmmgraph.Gamma" }

func (g *Gamma) Serialize() ([]byte, error) {
	return encodeFloats(g.Alpha, g.Beta), nil
}

// InverseGamma delegates log-probability and fitting to an internal
// Gamma over the reciprocal variate. No Jacobian correction is
// applied: LogProbability(x) is exactly Gamma.LogProbability(1/x).
type InverseGamma struct {
	gamma Gamma
}

// NewInverseGamma creates an InverseGamma(alpha, beta) distribution.
func NewInverseGamma(alpha, beta float64) *InverseGamma {
	return &InverseGamma{gamma: Gamma{Alpha: alpha, Beta: beta}}
}

func (ig *InverseGamma) Alpha() float64 { return ig.gamma.Alpha }
func (ig *InverseGamma) Beta() float64  { return ig.gamma.Beta }

func (ig *InverseGamma) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok || x == 0 {
		return math.Inf(-1)
	}
	return ig.gamma.LogProbability(1 / x)
}

func (ig *InverseGamma) Sample(gen *rand.Rand) Obs {
	g, _ := ig.gamma.Sample(gen).(float64)
	if g == 0 {
		return math.Inf(1)
	}
	return 1 / g
}

func (ig *InverseGamma) FitWeighted(samples []Obs, weights []float64) {
	recip := make([]Obs, len(samples))
	for i, s := range samples {
		if x, ok := floatObs(s); ok && x != 0 {
			recip[i] = 1 / x
		} else {
			recip[i] = math.NaN()
		}
	}
	ig.gamma.FitWeighted(recip, weights)
}

func (ig *InverseGamma) CloneUntied() Distribution {
	return &InverseGamma{gamma: Gamma{Alpha: ig.gamma.Alpha, Beta: ig.gamma.Beta}}
}

func (ig *InverseGamma) SerializerType() string { return "hmmgraph.InverseGamma" }

func (ig *InverseGamma) Serialize() ([]byte, error) {
	return encodeFloats(ig.gamma.Alpha, ig.gamma.Beta), nil
}
