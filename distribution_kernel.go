package hmm

import (
	"math"
	"math/rand"
)

// kernelShape selects the per-point contribution function shared by
// the three kernel-density distributions.
type kernelShape int

const (
	kernelGaussian kernelShape = iota
	kernelUniform
	kernelTriangle
)

// kernelDensity is the common representation behind
// GaussianKernelDensity, UniformKernelDensity and TriangleKernelDensity:
// a weighted mixture of identical per-point kernels.
type kernelDensity struct {
	shape     kernelShape
	points    []float64
	weights   []float64 // normalized to sum to 1
	bandwidth float64
}

func newKernelDensity(shape kernelShape, points []float64, bandwidth float64, weights []float64) *kernelDensity {
	k := &kernelDensity{shape: shape, bandwidth: bandwidth}
	k.points = append([]float64(nil), points...)
	if weights == nil {
		weights = make([]float64, len(points))
		for i := range weights {
			weights[i] = 1
		}
	}
	k.weights = normalizeWeights(weights)
	return k
}

func normalizeWeights(weights []float64) []float64 {
	res := append([]float64(nil), weights...)
	var sum float64
	for _, w := range res {
		sum += w
	}
	if sum <= 0 {
		return res
	}
	for i := range res {
		res[i] /= sum
	}
	return res
}

func (k *kernelDensity) contribution(x, point float64) float64 {
	switch k.shape {
	case kernelGaussian:
		z := (x - point) / k.bandwidth
		return math.Exp(-0.5*z*z) / (k.bandwidth * math.Sqrt(2*math.Pi))
	case kernelUniform:
		if math.Abs(x-point) <= k.bandwidth {
			return 1
		}
		return 0
	case kernelTriangle:
		return math.Max(0, k.bandwidth-math.Abs(x-point))
	default:
		panic("hmm: unknown kernel shape")
	}
}

func (k *kernelDensity) LogProbability(xo Obs) float64 {
	x, ok := floatObs(xo)
	if !ok {
		return math.Inf(-1)
	}
	var p float64
	for i, point := range k.points {
		p += k.weights[i] * k.contribution(x, point)
	}
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}

func (k *kernelDensity) Sample(gen *rand.Rand) Obs {
	idx := sampleIndex(gen, k.weights)
	point := k.points[idx]
	switch k.shape {
	case kernelGaussian:
		n := &Normal{Mu: point, Sigma: k.bandwidth}
		return n.Sample(gen)
	case kernelUniform:
		u := &Uniform{A: point - k.bandwidth, B: point + k.bandwidth}
		return u.Sample(gen)
	case kernelTriangle:
		var u1, u2 float64
		if gen == nil {
			u1, u2 = rand.Float64(), rand.Float64()
		} else {
			u1, u2 = gen.Float64(), gen.Float64()
		}
		return point + k.bandwidth*(u1-u2)
	default:
		panic("hmm: unknown kernel shape")
	}
}

// FitWeighted replaces the point/weight set with the supplied weighted
// samples (a non-parametric fit); the bandwidth is left unchanged. A
// no-op if samples is empty or carries no positive weight.
func (k *kernelDensity) FitWeighted(samples []Obs, weights []float64) {
	var points []float64
	var ws []float64
	for i, s := range samples {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		x, ok := floatObs(s)
		if !ok {
			continue
		}
		points = append(points, x)
		ws = append(ws, weights[i])
	}
	if len(points) == 0 {
		return
	}
	k.points = points
	k.weights = normalizeWeights(ws)
}

func (k *kernelDensity) CloneUntied() Distribution {
	return &kernelDensity{
		shape:     k.shape,
		points:    append([]float64(nil), k.points...),
		weights:   append([]float64(nil), k.weights...),
		bandwidth: k.bandwidth,
	}
}

func (k *kernelDensity) SerializerType() string {
	switch k.shape {
	case kernelGaussian:
		return "hmmgraph.GaussianKernelDensity"
	case kernelUniform:
		return "hmmgraph.UniformKernelDensity"
	case kernelTriangle:
		return "hmmgraph.TriangleKernelDensity"
	default:
		panic("hmm: unknown kernel shape")
	}
}

func (k *kernelDensity) Serialize() ([]byte, error) {
	vals := make([]float64, 0, len(k.points)+len(k.weights)+1)
	vals = append(vals, k.bandwidth, float64(len(k.points)))
	vals = append(vals, k.points...)
	vals = append(vals, k.weights...)
	return encodeFloats(vals...), nil
}

// GaussianKernelDensity is a weighted sum of Gaussian bumps centered at
// points, each with standard deviation bandwidth.
type GaussianKernelDensity struct{ *kernelDensity }

// NewGaussianKernelDensity creates a Gaussian kernel density estimate
// over points with the given bandwidth. A nil weights slice means
// uniform weighting.
func NewGaussianKernelDensity(points []float64, bandwidth float64, weights []float64) *GaussianKernelDensity {
	return &GaussianKernelDensity{newKernelDensity(kernelGaussian, points, bandwidth, weights)}
}

// UniformKernelDensity is a weighted sum of boxcar bumps: each point
// contributes 1 within bandwidth of x, 0 otherwise.
type UniformKernelDensity struct{ *kernelDensity }

// NewUniformKernelDensity creates a uniform (boxcar) kernel density
// estimate over points with the given bandwidth.
func NewUniformKernelDensity(points []float64, bandwidth float64, weights []float64) *UniformKernelDensity {
	return &UniformKernelDensity{newKernelDensity(kernelUniform, points, bandwidth, weights)}
}

// TriangleKernelDensity is a weighted sum of triangular bumps: each
// point contributes max(0, bandwidth - |x - point|).
type TriangleKernelDensity struct{ *kernelDensity }

// NewTriangleKernelDensity creates a triangular kernel density
// estimate over points with the given bandwidth.
func NewTriangleKernelDensity(points []float64, bandwidth float64, weights []float64) *TriangleKernelDensity {
	return &TriangleKernelDensity{newKernelDensity(kernelTriangle, points, bandwidth, weights)}
}
