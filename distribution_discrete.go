package hmm

import (
	"math"
	"math/rand"
)

// Discrete is a categorical distribution over a finite, caller-defined
// symbol set. Symbols absent from the table have probability 0 (log
// probability -Inf).
type Discrete struct {
	logP map[Obs]float64
}

// NewDiscrete builds a Discrete distribution from a table of linear
// (non-log) probabilities.
func NewDiscrete(probs map[Obs]float64) *Discrete {
	d := &Discrete{logP: map[Obs]float64{}}
	for sym, p := range probs {
		d.logP[sym] = math.Log(p)
	}
	return d
}

func (d *Discrete) LogProbability(x Obs) float64 {
	if lp, ok := d.logP[x]; ok {
		return lp
	}
	return math.Inf(-1)
}

func (d *Discrete) Sample(gen *rand.Rand) Obs {
	var syms []Obs
	var probs []float64
	for sym, lp := range d.logP {
		syms = append(syms, sym)
		probs = append(probs, math.Exp(lp))
	}
	if len(syms) == 0 {
		panic("hmm: cannot sample from an empty Discrete distribution")
	}
	return syms[sampleIndex(gen, probs)]
}

// FitWeighted accumulates weight per symbol and renormalizes. A no-op
// if samples is empty or carries no positive weight.
func (d *Discrete) FitWeighted(samples []Obs, weights []float64) {
	totals := map[Obs]float64{}
	var sum float64
	for i, s := range samples {
		if i >= len(weights) || weights[i] <= 0 {
			continue
		}
		totals[s] += weights[i]
		sum += weights[i]
	}
	if sum <= 0 {
		return
	}
	d.logP = map[Obs]float64{}
	for sym, w := range totals {
		d.logP[sym] = math.Log(w / sum)
	}
}

func (d *Discrete) CloneUntied() Distribution {
	cp := &Discrete{logP: map[Obs]float64{}}
	for k, v := range d.logP {
		cp.logP[k] = v
	}
	return cp
}

func (d *Discrete) SerializerType() string { return "hmmgraph.Discrete" }

func (d *Discrete) Serialize() ([]byte, error) {
	var syms []Obs
	var probs []float64
	for sym, lp := range d.logP {
		syms = append(syms, sym)
		probs = append(probs, lp)
	}
	return encodeDiscreteTable(syms, probs)
}
