package hmm

import (
	"math"
	"math/rand"
)

// Mixture composes several child distributions with weights:
// log p(x) = logsumexp_j(log w_j + child_j.LogProbability(x)).
//
// Sample performs weighted child selection, then delegates to the
// chosen child.
type Mixture struct {
	Children   []Distribution
	logWeights []float64
}

// NewMixture builds a Mixture from children and linear (non-log)
// weights, which are renormalized to sum to 1.
func NewMixture(children []Distribution, weights []float64) *Mixture {
	if len(children) != len(weights) {
		panic("hmm: Mixture requires one weight per child")
	}
	norm := normalizeWeights(weights)
	logW := make([]float64, len(norm))
	for i, w := range norm {
		logW[i] = math.Log(w)
	}
	return &Mixture{Children: children, logWeights: logW}
}

func (m *Mixture) LogProbability(x Obs) float64 {
	acc := math.Inf(-1)
	for i, c := range m.Children {
		acc = lse(acc, m.logWeights[i]+c.LogProbability(x))
	}
	return acc
}

func (m *Mixture) Sample(gen *rand.Rand) Obs {
	probs := make([]float64, len(m.logWeights))
	for i, lw := range m.logWeights {
		probs[i] = math.Exp(lw)
	}
	idx := sampleIndex(gen, probs)
	child, ok := m.Children[idx].(Sampler)
	if !ok {
		panic("hmm: Mixture child is not samplable")
	}
	return child.Sample(gen)
}

// FitWeighted performs one EM step: compute each sample's
// responsibility under every child, refit fittable children on the
// responsibility-weighted samples, and update the mixture weights from
// the total responsibility mass.
func (m *Mixture) FitWeighted(samples []Obs, weights []float64) {
	n := len(samples)
	if n == 0 {
		return
	}
	resp := make([][]float64, len(m.Children))
	for j := range resp {
		resp[j] = make([]float64, n)
	}
	totalResp := make([]float64, len(m.Children))
	var totalW float64
	for i, x := range samples {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		totalW += w
		logPX := m.LogProbability(x)
		if math.IsInf(logPX, -1) {
			continue
		}
		for j, c := range m.Children {
			logR := m.logWeights[j] + c.LogProbability(x) - logPX
			r := math.Exp(logR) * w
			resp[j][i] = r
			totalResp[j] += r
		}
	}
	if totalW <= 0 {
		return
	}
	for j, c := range m.Children {
		if fitter, ok := c.(Fitter); ok {
			fitter.FitWeighted(samples, resp[j])
		}
		if totalResp[j] > 0 {
			m.logWeights[j] = math.Log(totalResp[j] / totalW)
		}
	}
}

func (m *Mixture) CloneUntied() Distribution {
	children := make([]Distribution, len(m.Children))
	for i, c := range m.Children {
		if cloner, ok := c.(Cloner); ok {
			children[i] = cloner.CloneUntied()
		} else {
			children[i] = c
		}
	}
	return &Mixture{Children: children, logWeights: append([]float64(nil), m.logWeights...)}
}

func (m *Mixture) SerializerType() string { return "hmmgraph.Mixture" }

func (m *Mixture) Serialize() ([]byte, error) {
	return encodeMixture(m.Children, m.logWeights)
}
