package hmm

import (
	"errors"
	"fmt"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// MergePolicy controls how the baker collapses degenerate
// probability-1 silent transitions during Bake.
type MergePolicy int

const (
	// MergeNone performs no silent-state merging.
	MergeNone MergePolicy = iota
	// MergePartial merges a -> b only when both a and b are silent.
	MergePartial
	// MergeAll merges a -> b whenever a is silent, regardless of b.
	MergeAll
)

// Model is the immutable, index-based compiled form of a Builder graph
// produced by Bake. States [0, SilentStart()) are
// emitting, in any stable order; states [SilentStart(), NumStates())
// are silent, in topological order. DP kernels and trainers operate
// only on this form.
type Model struct {
	Name string

	states      []*State
	index       map[*State]int
	silentStart int
	startIndex  int
	endIndex    int
	finite      bool

	outOffset []int
	outTarget []int
	outLogP   []float64
	outPC     []float64
	outMirror []int // outMirror[idx] is the position of the same edge in the in-* arrays

	inOffset []int
	inSource []int
	inLogP   []float64
	inPC     []float64

	tieOffset []int
	tieMember []int

	stateLogWeight []float64
}

// NumStates returns the total number of states, emitting plus silent.
func (m *Model) NumStates() int { return len(m.states) }

// SilentStart returns the index of the first silent state; indices
// below it are emitting.
func (m *Model) SilentStart() int { return m.silentStart }

// StartIndex and EndIndex return the compiled indices of the
// distinguished start and end states.
func (m *Model) StartIndex() int { return m.startIndex }
func (m *Model) EndIndex() int   { return m.endIndex }

// Finite reports whether the model has at least one incoming edge to
// its end state; sequences generated by a finite model always
// terminate there.
func (m *Model) Finite() bool { return m.finite }

// State returns the State at compiled index i.
func (m *Model) State(i int) *State { return m.states[i] }

// StateIndex looks up the compiled index of a state, if present.
func (m *Model) StateIndex(s *State) (int, bool) {
	i, ok := m.index[s]
	return i, ok
}

func (m *Model) outEdges(k int) (targets []int, logP, pc []float64) {
	lo, hi := m.outOffset[k], m.outOffset[k+1]
	return m.outTarget[lo:hi], m.outLogP[lo:hi], m.outPC[lo:hi]
}

func (m *Model) inEdges(k int) (sources []int, logP, pc []float64) {
	lo, hi := m.inOffset[k], m.inOffset[k+1]
	return m.inSource[lo:hi], m.inLogP[lo:hi], m.inPC[lo:hi]
}

// setOutLogP overwrites the log-probability of out-edge j of state k,
// mirroring the write into the corresponding in-edge entry so forward
// and viterbi (which read the in-* arrays) see the update as well as
// backward, forward-backward and sampling (which read the out-* arrays).
func (m *Model) setOutLogP(k, j int, logP float64) {
	base := m.outOffset[k]
	m.outLogP[base+j] = logP
	m.inLogP[m.outMirror[base+j]] = logP
}

// TieMembers returns the other emitting states tied (sharing a
// distribution object) with state k, excluding k itself.
func (m *Model) TieMembers(k int) []int {
	lo, hi := m.tieOffset[k], m.tieOffset[k+1]
	return m.tieMember[lo:hi]
}

func (m *Model) SerializerType() string { return "hmmgraph.Model" }

// Serialize persists the compiled model: states (name, weight, shared
// distribution references), the edge CSR tables, the tie table and
// state weights. Tied distributions are written once and shared back
// out on Deserialize so the tie relationship survives a round trip.
func (m *Model) Serialize() (data []byte, err error) {
	defer essentials.AddCtxTo("serialize Model", &err)

	names := make([]serializer.Serializer, len(m.states))
	weights := make([]float64, len(m.states))
	for i, s := range m.states {
		names[i] = serializer.String(s.Name)
		weights[i] = s.Weight
	}

	var dists []serializer.Serializer
	distOwner := make([]float64, m.silentStart)
	seen := map[Distribution]int{}
	for i := 0; i < m.silentStart; i++ {
		d := m.states[i].Dist
		if owner, ok := seen[d]; ok {
			distOwner[i] = float64(owner)
			continue
		}
		ser, ok := d.(serializer.Serializer)
		if !ok {
			return nil, fmt.Errorf("hmm: distribution not serializable: %T", d)
		}
		seen[d] = len(dists)
		distOwner[i] = float64(len(dists))
		dists = append(dists, ser)
	}

	header := []float64{float64(m.silentStart), float64(m.startIndex), float64(m.endIndex)}

	return serializer.SerializeAny(
		serializer.String(m.Name),
		names, weights,
		header,
		dists, distOwner,
		intsToFloats(m.outOffset), intsToFloats(m.outTarget), m.outLogP, m.outPC, intsToFloats(m.outMirror),
		intsToFloats(m.inOffset), intsToFloats(m.inSource), m.inLogP, m.inPC,
		intsToFloats(m.tieOffset), intsToFloats(m.tieMember),
		m.stateLogWeight,
	)
}

// DeserializeModel deserializes a Model written by Model.Serialize.
func DeserializeModel(d []byte) (m *Model, err error) {
	defer essentials.AddCtxTo("deserialize Model", &err)

	var name serializer.String
	var names []serializer.Serializer
	var weights, header, distOwner []float64
	var dists []serializer.Serializer
	var outOffsetF, outTargetF, outLogP, outPC, outMirrorF []float64
	var inOffsetF, inSourceF, inLogP, inPC []float64
	var tieOffsetF, tieMemberF, stateLogWeight []float64

	err = serializer.DeserializeAny(d,
		&name, &names, &weights,
		&header,
		&dists, &distOwner,
		&outOffsetF, &outTargetF, &outLogP, &outPC, &outMirrorF,
		&inOffsetF, &inSourceF, &inLogP, &inPC,
		&tieOffsetF, &tieMemberF,
		&stateLogWeight,
	)
	if err != nil {
		return nil, err
	}
	if len(header) != 3 || len(names) != len(weights) {
		return nil, errors.New("invalid slice size")
	}

	silentStart := int(header[0])
	if silentStart < 0 || silentStart > len(names) {
		return nil, errors.New("invalid slice size")
	}

	states := make([]*State, len(names))
	for i, n := range names {
		str, ok := n.(serializer.String)
		if !ok {
			return nil, fmt.Errorf("hmm: not a String: %T", n)
		}
		states[i] = &State{Name: string(str), Weight: weights[i]}
	}
	for i := 0; i < silentStart; i++ {
		ownerIdx := int(distOwner[i])
		if ownerIdx < 0 || ownerIdx >= len(dists) {
			return nil, errors.New("invalid distribution owner index")
		}
		dist, ok := dists[ownerIdx].(Distribution)
		if !ok {
			return nil, fmt.Errorf("hmm: not a Distribution: %T", dists[ownerIdx])
		}
		states[i].Dist = dist
	}

	m = &Model{
		Name:           string(name),
		states:         states,
		silentStart:    silentStart,
		startIndex:     int(header[1]),
		endIndex:       int(header[2]),
		index:          map[*State]int{},
		outOffset:      floatsToInts(outOffsetF),
		outTarget:      floatsToInts(outTargetF),
		outLogP:        outLogP,
		outPC:          outPC,
		outMirror:      floatsToInts(outMirrorF),
		inOffset:       floatsToInts(inOffsetF),
		inSource:       floatsToInts(inSourceF),
		inLogP:         inLogP,
		inPC:           inPC,
		tieOffset:      floatsToInts(tieOffsetF),
		tieMember:      floatsToInts(tieMemberF),
		stateLogWeight: stateLogWeight,
	}
	for i, s := range states {
		m.index[s] = i
	}
	if m.endIndex < 0 || m.endIndex+1 >= len(m.inOffset) {
		return nil, errors.New("invalid end index")
	}
	m.finite = m.inOffset[m.endIndex+1]-m.inOffset[m.endIndex] > 0
	return m, nil
}

func intsToFloats(ints []int) []float64 {
	r := make([]float64, len(ints))
	for i, v := range ints {
		r[i] = float64(v)
	}
	return r
}

func floatsToInts(fs []float64) []int {
	r := make([]int, len(fs))
	for i, v := range fs {
		r[i] = int(v)
	}
	return r
}
