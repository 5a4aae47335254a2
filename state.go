package hmm

// Obs is an observation for a single timestep. Concrete distributions
// assert it to whatever concrete type they expect (float64 for the
// continuous and kernel-density distributions, any comparable type for
// Discrete).
type Obs interface{}

// A State is a named node in a Builder graph. Equality is by pointer,
// not by Name: two *State values with the same Name are still distinct
// states unless they are literally the same pointer. A state with a
// nil Dist is silent and never emits; a state with a Dist emits
// exactly one Obs per visit.
type State struct {
	Name   string
	Dist   Distribution
	Weight float64
}

// NewState creates an emitting state with the given name and
// distribution and a default weight of 1.
func NewState(name string, dist Distribution) *State {
	return &State{Name: name, Dist: dist, Weight: 1}
}

// NewSilentState creates a silent state (no emission distribution)
// with a default weight of 1.
func NewSilentState(name string) *State {
	return &State{Name: name, Weight: 1}
}

// Silent reports whether the state emits no symbol.
func (s *State) Silent() bool {
	return s.Dist == nil
}

func (s *State) String() string {
	return s.Name
}
