package hmm

import (
	"errors"
	"math"
	"math/rand"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// A Distribution is an emission model attached to an emitting State.
// Every concrete distribution in this package implements at least
// Distribution; most also implement Sampler and Fitter, and all
// implement Cloner. Dispatch across the heterogeneous set is by
// ordinary Go interface satisfaction, not a closed tagged union.
type Distribution interface {
	// LogProbability returns the log density/mass at x, or -Inf when x
	// is outside the distribution's support.
	LogProbability(x Obs) float64

	SerializerType() string
	Serialize() ([]byte, error)
}

// A Sampler can draw a variate. Lambda does not implement this
// interface: a user-supplied log-probability function carries no
// sampling procedure.
type Sampler interface {
	Distribution
	Sample(gen *rand.Rand) Obs
}

// A Fitter can replace its parameters with the weighted MLE over a
// batch of samples. Lambda does not implement this interface.
//
// FitWeighted is a no-op when samples is empty or every weight is
// zero.
type Fitter interface {
	Distribution
	FitWeighted(samples []Obs, weights []float64)
}

// A Cloner produces an independent deep copy of a distribution, used
// when a tied class needs to be split apart or a builder wants to
// avoid accidental sharing.
type Cloner interface {
	Distribution
	CloneUntied() Distribution
}

// weightedMeanAndLogMean computes the weight-normalized mean of xs and,
// separately, the weight-normalized mean of log(xs), skipping entries
// with non-positive weight. It reports the total weight actually used.
func weightedMeanAndLogMean(xs, ws []float64) (mean, logMean, totalW float64) {
	for i, x := range xs {
		if i >= len(ws) {
			continue
		}
		w := ws[i]
		if w <= 0 || math.IsNaN(x) || x <= 0 {
			continue
		}
		mean += w * x
		logMean += w * math.Log(x)
		totalW += w
	}
	if totalW <= 0 {
		return 0, 0, 0
	}
	return mean / totalW, logMean / totalW, totalW
}

// floatObs extracts the float64 payload from an Obs, the common case
// for every continuous and kernel-density distribution in this file.
func floatObs(x Obs) (float64, bool) {
	f, ok := x.(float64)
	return f, ok
}

// floatSamples converts a slice of Obs into float64, replacing entries
// that aren't float64 with NaN so indices stay aligned with the
// weights (a domain mismatch, not a panic: callers pass
// whatever observations the sequence contains, and a continuous
// distribution simply contributes nothing for inputs outside its
// domain).
func floatSamples(samples []Obs) []float64 {
	res := make([]float64, 0, len(samples))
	for _, s := range samples {
		if f, ok := floatObs(s); ok {
			res = append(res, f)
		} else {
			res = append(res, math.NaN())
		}
	}
	return res
}

var errNotSerializable = errors.New("hmm: distribution is not serializable")

// Lambda wraps a user-supplied log-probability function. It is
// non-samplable and non-fittable, used when no built-in distribution
// shape fits.
type Lambda struct {
	Name string
	Fn   func(Obs) float64
}

// NewLambda wraps fn as a Distribution.
func NewLambda(name string, fn func(Obs) float64) *Lambda {
	return &Lambda{Name: name, Fn: fn}
}

func (l *Lambda) LogProbability(x Obs) float64 { return l.Fn(x) }

func (l *Lambda) CloneUntied() Distribution {
	return &Lambda{Name: l.Name, Fn: l.Fn}
}

func (l *Lambda) SerializerType() string { return "hmmgraph.Lambda" }

func (l *Lambda) Serialize() ([]byte, error) {
	return nil, errNotSerializable
}

// Uniform is the continuous uniform distribution on [A, B].
type Uniform struct {
	A, B float64
}

// NewUniform creates a Uniform(a, b) distribution. a must be <= b.
func NewUniform(a, b float64) *Uniform {
	if a > b {
		panic(&DomainError{Err: errors.New("Uniform requires a <= b")})
	}
	return &Uniform{A: a, B: b}
}

func (u *Uniform) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok {
		return math.Inf(-1)
	}
	if u.A == u.B {
		if x == u.A {
			return 0
		}
		return math.Inf(-1)
	}
	if x < u.A || x > u.B {
		return math.Inf(-1)
	}
	return -math.Log(u.B - u.A)
}

func (u *Uniform) Sample(gen *rand.Rand) Obs {
	if u.A == u.B {
		return u.A
	}
	d := distuv.Uniform{Min: u.A, Max: u.B, Src: randSource(gen)}
	return d.Rand()
}

// FitWeighted replaces (A, B) by (min, max) over the positively
// weighted samples. A no-op if no sample carries positive weight.
func (u *Uniform) FitWeighted(samples []Obs, weights []float64) {
	first := true
	var lo, hi float64
	for i, so := range samples {
		x, ok := floatObs(so)
		if !ok || i >= len(weights) || weights[i] <= 0 {
			continue
		}
		if first {
			lo, hi = x, x
			first = false
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if first {
		return
	}
	u.A, u.B = lo, hi
}

func (u *Uniform) CloneUntied() Distribution { return &Uniform{A: u.A, B: u.B} }

func (u *Uniform) SerializerType() string { return "hmmgraph.Uniform" }

func (u *Uniform) Serialize() ([]byte, error) {
	return encodeFloats(u.A, u.B), nil
}

// minSigma is the floor on Normal's standard deviation, preventing the
// distribution from collapsing to a point mass during fitting.
const minSigma = 0.01

// Normal is the univariate Gaussian distribution.
type Normal struct {
	Mu, Sigma float64
}

// NewNormal creates a Normal(mu, sigma) distribution. sigma must be
// non-negative.
func NewNormal(mu, sigma float64) *Normal {
	if sigma < 0 {
		panic(&DomainError{Err: errors.New("Normal requires sigma >= 0")})
	}
	return &Normal{Mu: mu, Sigma: sigma}
}

func (n *Normal) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok {
		return math.Inf(-1)
	}
	if n.Sigma == 0 {
		if math.Abs(x-n.Mu) < 1e-9 {
			return 0
		}
		return math.Inf(-1)
	}
	z := (x - n.Mu) / n.Sigma
	return -0.5*z*z - math.Log(n.Sigma) - 0.5*math.Log(2*math.Pi)
}

func (n *Normal) Sample(gen *rand.Rand) Obs {
	d := distuv.Normal{Mu: n.Mu, Sigma: math.Max(n.Sigma, 1e-300), Src: randSource(gen)}
	return d.Rand()
}

// FitWeighted sets Mu to the weighted mean and Sigma to the weighted
// standard deviation (via E[x^2] - mu^2), clamped to minSigma. Sigma is
// left unchanged unless at least two samples carry positive weight.
func (n *Normal) FitWeighted(samples []Obs, weights []float64) {
	xs := floatSamples(samples)
	var sumW, sumWX, sumWX2 float64
	count := 0
	for i, x := range xs {
		if math.IsNaN(x) || i >= len(weights) || weights[i] <= 0 {
			continue
		}
		w := weights[i]
		sumW += w
		sumWX += w * x
		sumWX2 += w * x * x
		count++
	}
	if sumW <= 0 {
		return
	}
	mu := sumWX / sumW
	n.Mu = mu
	if count >= 2 {
		variance := sumWX2/sumW - mu*mu
		if variance < 0 {
			variance = 0
		}
		sigma := math.Sqrt(variance)
		if sigma < minSigma {
			sigma = minSigma
		}
		n.Sigma = sigma
	}
}

func (n *Normal) CloneUntied() Distribution { return &Normal{Mu: n.Mu, Sigma: n.Sigma} }

func (n *Normal) SerializerType() string { return "hmmgraph.Normal" }

func (n *Normal) Serialize() ([]byte, error) {
	return encodeFloats(n.Mu, n.Sigma), nil
}

// Exponential is the continuous exponential distribution with rate
// Lambda.
type Exponential struct {
	Lambda float64
}

// NewExponential creates an Exponential(lambda) distribution.
func NewExponential(lambda float64) *Exponential {
	if lambda <= 0 {
		panic(&DomainError{Err: errors.New("Exponential requires lambda > 0")})
	}
	return &Exponential{Lambda: lambda}
}

func (e *Exponential) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok || x < 0 {
		return math.Inf(-1)
	}
	return math.Log(e.Lambda) - e.Lambda*x
}

func (e *Exponential) Sample(gen *rand.Rand) Obs {
	d := distuv.Exponential{Rate: e.Lambda, Src: randSource(gen)}
	return d.Rand()
}

// FitWeighted sets Lambda to the reciprocal of the weighted mean.
func (e *Exponential) FitWeighted(samples []Obs, weights []float64) {
	xs := floatSamples(samples)
	var sumW, sumWX float64
	for i, x := range xs {
		if math.IsNaN(x) || i >= len(weights) || weights[i] <= 0 {
			continue
		}
		sumW += weights[i]
		sumWX += weights[i] * x
	}
	if sumW <= 0 || sumWX <= 0 {
		return
	}
	e.Lambda = sumW / sumWX
}

func (e *Exponential) CloneUntied() Distribution { return &Exponential{Lambda: e.Lambda} }

func (e *Exponential) SerializerType() string { return "hmmgraph.Exponential" }

func (e *Exponential) Serialize() ([]byte, error) {
	return encodeFloats(e.Lambda), nil
}

// randRandSource adapts a *rand.Rand to the exprand.Source interface
// gonum's distuv types expect.
type randRandSource struct {
	gen *rand.Rand
}

func (s randRandSource) Uint64() uint64   { return s.gen.Uint64() }
func (s randRandSource) Seed(seed uint64) { s.gen.Seed(int64(seed)) }

// randSource adapts an optional *rand.Rand to the rand.Source gonum's
// distuv types expect. A non-nil gen passes through wrapped in an
// adapter; a nil gen falls back to a source seeded from the global
// math/rand generator.
func randSource(gen *rand.Rand) exprand.Source {
	if gen != nil {
		return randRandSource{gen: gen}
	}
	return exprand.NewSource(uint64(rand.Int63()))
}
