package hmm

import "fmt"

// edgeSpec is a single weighted, pseudocounted transition as recorded
// by the Builder, prior to bake-time normalization.
type edgeSpec struct {
	to          *State
	prob        float64
	pseudocount float64
}

// Builder is the mutable directed multigraph of states and weighted
// transitions collected before baking. It carries a
// distinguished Start and End, both silent. Self-loops and parallel
// edges (multiple AddTransition calls between the same pair) are
// accepted here. Bake normalizes parallel edges together with the rest
// of the state's outgoing edges but does not combine them: each stays
// a separate compiled edge.
type Builder struct {
	Name  string
	Start *State
	End   *State

	states []*State
	seen   map[*State]bool
	out    map[*State][]*edgeSpec
}

// NewBuilder creates an empty Builder with fresh silent Start and End
// states.
func NewBuilder(name string) *Builder {
	b := &Builder{
		Name: name,
		seen: map[*State]bool{},
		out:  map[*State][]*edgeSpec{},
	}
	b.Start = NewSilentState(name + "-start")
	b.End = NewSilentState(name + "-end")
	b.addStateUnchecked(b.Start)
	b.addStateUnchecked(b.End)
	return b
}

func (b *Builder) addStateUnchecked(s *State) {
	b.seen[s] = true
	b.states = append(b.states, s)
}

// AddState registers a state with the builder. It is idempotent: a
// state already known to the builder is left alone.
func (b *Builder) AddState(s *State) {
	if b.seen[s] {
		return
	}
	b.addStateUnchecked(s)
}

// AddTransition records a directed, weighted edge from -> to. prob
// must be in [0,1]. pseudocount defaults to prob when omitted. Both
// endpoints are implicitly added to the builder if they are not
// already present.
func (b *Builder) AddTransition(from, to *State, prob float64, pseudocount ...float64) {
	if prob < 0 || prob > 1 {
		panic(&DomainError{Err: fmt.Errorf("transition probability out of range: %v", prob)})
	}
	pc := prob
	if len(pseudocount) > 0 {
		pc = pseudocount[0]
	}
	b.AddState(from)
	b.AddState(to)
	b.out[from] = append(b.out[from], &edgeSpec{to: to, prob: prob, pseudocount: pc})
}

// States returns every state currently registered with the builder, in
// insertion order.
func (b *Builder) States() []*State {
	return append([]*State(nil), b.states...)
}

// AddSubmodel merges other's states and transitions into b as a
// disjoint union: other.Start and other.End become ordinary silent
// states in the combined graph, and it is the caller's responsibility
// to wire them into b's own topology.
func (b *Builder) AddSubmodel(other *Builder) {
	for _, s := range other.states {
		b.AddState(s)
	}
	for from, edges := range other.out {
		for _, e := range edges {
			b.AddTransition(from, e.to, e.prob, e.pseudocount)
		}
	}
}

// Concatenate appends other after b: it performs a disjoint union (as
// AddSubmodel), wires b.End -> other.Start at probability 1, and
// reassigns b.End to other.End.
func (b *Builder) Concatenate(other *Builder) {
	oldEnd := b.End
	b.AddSubmodel(other)
	b.AddTransition(oldEnd, other.Start, 1)
	b.End = other.End
}
