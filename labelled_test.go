package hmm

import (
	"math"
	"testing"
)

func TestLabelledExactTransitionCounts(t *testing.T) {
	m, s1, s2 := twoStateModel(t)
	i1, _ := m.StateIndex(s1)
	i2, _ := m.StateIndex(s2)

	examples := []LabelledExample{
		{Seq: []Obs{0.1, 4.9}, Path: []int{i1, i2}},
		{Seq: []Obs{0.2, 5.1}, Path: []int{i1, i2}},
		{Seq: []Obs{4.8}, Path: []int{i2}},
	}

	E := newMatrix(m.NumStates(), m.NumStates())
	for _, ex := range examples {
		prev := m.StartIndex()
		for _, s := range ex.Path {
			E.set(prev, s, E.At(prev, s)+1)
			prev = s
		}
		E.set(prev, m.EndIndex(), E.At(prev, m.EndIndex())+1)
	}

	Labelled(m, examples, TrainOptions{TransitionPseudocount: 0, EdgeInertia: 0})

	// start -> s1 should now carry two thirds of the probability mass
	// (2 of 3 examples start there), start -> s2 the rest.
	startTargets, startLogP, _ := m.outEdges(m.StartIndex())
	var gotToS1, gotToS2 float64
	for i, tgt := range startTargets {
		if tgt == i1 {
			gotToS1 = math.Exp(startLogP[i])
		}
		if tgt == i2 {
			gotToS2 = math.Exp(startLogP[i])
		}
	}
	if math.Abs(gotToS1-2.0/3.0) > 1e-9 {
		t.Errorf("P(start->s1) = %v, want 2/3", gotToS1)
	}
	if math.Abs(gotToS2-1.0/3.0) > 1e-9 {
		t.Errorf("P(start->s2) = %v, want 1/3", gotToS2)
	}
}

func TestViterbiTrainOwnPathIsIdempotentOrImproving(t *testing.T) {
	m, _, _ := twoStateModel(t)
	seqs := [][]Obs{
		{0.1, 4.8, 0.3},
		{4.9, 0.2, 5.0, -0.1},
	}
	before := totalLogProbability(m, seqs)
	ViterbiTrain(m, seqs, TrainOptions{TransitionPseudocount: 1, EdgeInertia: 0})
	after := totalLogProbability(m, seqs)
	if after < before-1e-9 {
		t.Errorf("ViterbiTrain decreased total log-probability: before=%v after=%v", before, after)
	}
}
