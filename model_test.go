package hmm

import "testing"

func TestModelSerializeRoundTripPreservesTies(t *testing.T) {
	shared := NewNormal(1, 2)
	b := NewBuilder("tied")
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

	data, err := m.Serialize()
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	m2, err := DeserializeModel(data)
	if err != nil {
		t.Fatalf("DeserializeModel failed: %v", err)
	}

	if m2.NumStates() != m.NumStates() {
		t.Fatalf("NumStates = %d, want %d", m2.NumStates(), m.NumStates())
	}

	i1, i2 := 0, 1
	if m2.states[i1].Dist != m2.states[i2].Dist {
		t.Error("tied states should share the same Distribution pointer after a round trip")
	}
	if m2.states[i1].Dist.(*Normal).Mu != 1 {
		t.Errorf("deserialized Mu = %v, want 1", m2.states[i1].Dist.(*Normal).Mu)
	}
}

func TestModelCSRTablesConsistent(t *testing.T) {
	m, _, _ := twoStateModel(t)
	n := m.NumStates()
	if len(m.outOffset) != n+1 {
		t.Errorf("len(outOffset) = %d, want %d", len(m.outOffset), n+1)
	}
	if len(m.inOffset) != n+1 {
		t.Errorf("len(inOffset) = %d, want %d", len(m.inOffset), n+1)
	}
	for _, tgt := range m.outTarget {
		if tgt < 0 || tgt >= n {
			t.Errorf("out-edge target %d out of range [0, %d)", tgt, n)
		}
	}
	for _, src := range m.inSource {
		if src < 0 || src >= n {
			t.Errorf("in-edge source %d out of range [0, %d)", src, n)
		}
	}
}
