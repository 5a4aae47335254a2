package hmm

import (
	"math"
	"testing"
)

func TestBakePrunesOrphans(t *testing.T) {
	b := NewBuilder("m")
	orphan := NewSilentState("orphan") // never connected to anything
	b.AddState(orphan)
	emit := NewState("e", NewUniform(0, 1))
	b.AddTransition(b.Start, emit, 1)
	b.AddTransition(emit, b.End, 1)

	m, err := Bake(b, BakeOptions{})
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if _, ok := m.StateIndex(orphan); ok {
		t.Error("orphan state should have been pruned")
	}
}

func TestBakeNormalizesOutgoingProbabilities(t *testing.T) {
	b := NewBuilder("m")
	e1 := NewState("e1", NewUniform(0, 1))
	e2 := NewState("e2", NewUniform(0, 1))
	b.AddTransition(b.Start, e1, 0.3)
	b.AddTransition(b.Start, e2, 0.3)
	b.AddTransition(e1, b.End, 1)
	b.AddTransition(e2, b.End, 1)

	m, err := Bake(b, BakeOptions{})
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	startIdx := m.StartIndex()
	targets, logP, _ := m.outEdges(startIdx)
	var sum float64
	for _, lp := range logP {
		sum += math.Exp(lp)
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("outgoing probabilities from start sum to %v, want 1", sum)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 outgoing edges from start, got %d", len(targets))
	}
}

func TestBakeRejectsSilentCycle(t *testing.T) {
	b := NewBuilder("m")
	a := NewSilentState("a")
	c := NewSilentState("c")
	b.AddTransition(b.Start, a, 1)
	b.AddTransition(a, c, 0.5)
	b.AddTransition(c, a, 0.5)
	b.AddTransition(c, b.End, 0.5)
	b.AddTransition(a, b.End, 0.5)

	_, err := Bake(b, BakeOptions{})
	if err == nil {
		t.Fatal("expected an error for a silent-state cycle")
	}
	if _, ok := err.(*StructuralError); !ok {
		t.Errorf("expected *StructuralError, got %T", err)
	}
}

func TestBakeBuildsTieTable(t *testing.T) {
	shared := NewNormal(0, 1)
	b := NewBuilder("m")
	e1 := NewState("e1", shared)
	e2 := NewState("e2", shared)
	b.AddTransition(b.Start, e1, 0.5)
	b.AddTransition(b.Start, e2, 0.5)
	b.AddTransition(e1, b.End, 1)
	b.AddTransition(e2, b.End, 1)

	m, err := Bake(b, BakeOptions{})
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	i1, _ := m.StateIndex(e1)
	i2, _ := m.StateIndex(e2)
	members := m.TieMembers(i1)
	if len(members) != 1 || members[0] != i2 {
		t.Errorf("TieMembers(e1) = %v, want [%d]", members, i2)
	}
}

func TestBakeMergeAllCollapsesSilentChain(t *testing.T) {
	b := NewBuilder("m")
	mid := NewSilentState("mid")
	emit := NewState("e", NewUniform(0, 1))
	b.AddTransition(b.Start, mid, 1)
	b.AddTransition(mid, emit, 1)
	b.AddTransition(emit, b.End, 1)

	m, err := Bake(b, BakeOptions{Merge: MergeAll})
	if err != nil {
		t.Fatalf("Bake failed: %v", err)
	}
	if _, ok := m.StateIndex(mid); ok {
		t.Error("MergeAll should have collapsed the probability-1 silent edge out of mid")
	}
}

func TestBakeRequiresStartAndEnd(t *testing.T) {
	b := NewBuilder("m")
	delete(b.seen, b.End)
	var filtered []*State
	for _, s := range b.states {
		if s != b.End {
			filtered = append(filtered, s)
		}
	}
	b.states = filtered

	_, err := Bake(b, BakeOptions{})
	if err == nil {
		t.Fatal("expected an error when End is missing")
	}
}
