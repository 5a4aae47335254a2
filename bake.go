package hmm

import "math"

// BakeOptions configures Bake.
type BakeOptions struct {
	// Merge selects the silent-state merge policy.
	Merge MergePolicy

	// Warnf receives diagnostics discovered during bake (currently
	// just a detected silent cycle) before Bake returns the
	// corresponding error. A nil Warnf is a no-op.
	Warnf func(format string, args ...interface{})
}

// Bake compiles a Builder graph into an immutable Model: orphan
// pruning, outgoing normalization, silent-state merging, a
// silent-cycle check, emitting-then-silent-topological ordering, tie
// discovery and CSR construction, in that order.
func Bake(b *Builder, opts BakeOptions) (*Model, error) {
	g := newBakeGraph(b)

	if len(g.states) == 0 {
		return nil, &StructuralError{Err: errEmptyModel}
	}
	if !g.seen[b.Start] {
		return nil, &StructuralError{Err: errMissingStart}
	}
	if !g.seen[b.End] {
		return nil, &StructuralError{Err: errMissingEnd}
	}

	g.pruneOrphans(b.Start, b.End)
	g.normalizeOutgoing(b.End)
	if opts.Merge != MergeNone {
		g.mergeSilent(b.Start, b.End, opts.Merge)
	}

	if cyc := g.findSilentCycle(); cyc != nil {
		if opts.Warnf != nil {
			opts.Warnf("hmm: silent-state cycle detected: %v", cyc)
		}
		return nil, &StructuralError{Err: errSilentCycle}
	}

	order, silentStart, err := g.order()
	if err != nil {
		return nil, err
	}

	m := &Model{
		Name:        b.Name,
		states:      order,
		silentStart: silentStart,
		index:       make(map[*State]int, len(order)),
	}
	for i, s := range order {
		m.index[s] = i
	}
	m.startIndex = m.index[b.Start]
	m.endIndex = m.index[b.End]

	g.buildTies(m)
	g.buildEdges(m)

	m.finite = m.inOffset[m.endIndex+1]-m.inOffset[m.endIndex] > 0

	m.stateLogWeight = make([]float64, silentStart)
	for i := 0; i < silentStart; i++ {
		m.stateLogWeight[i] = math.Log(order[i].Weight)
	}

	return m, nil
}

// bakeGraph is a private, mutable copy of a Builder's graph that the
// baking pipeline prunes and rewrites in place, leaving the original
// Builder untouched.
type bakeGraph struct {
	states []*State
	seen   map[*State]bool
	out    map[*State][]*edgeSpec
}

func newBakeGraph(b *Builder) *bakeGraph {
	g := &bakeGraph{
		states: append([]*State(nil), b.states...),
		seen:   make(map[*State]bool, len(b.states)),
		out:    make(map[*State][]*edgeSpec, len(b.out)),
	}
	for _, s := range b.states {
		g.seen[s] = true
	}
	for from, edges := range b.out {
		cp := make([]*edgeSpec, len(edges))
		for i, e := range edges {
			cp[i] = &edgeSpec{to: e.to, prob: e.prob, pseudocount: e.pseudocount}
		}
		g.out[from] = cp
	}
	return g
}

// pruneOrphans iteratively removes any state other than start/end with
// zero in-degree or zero out-degree, until a fixed point.
func (g *bakeGraph) pruneOrphans(start, end *State) {
	for {
		inDeg := map[*State]int{}
		outDeg := map[*State]int{}
		for _, s := range g.states {
			inDeg[s] = 0
			outDeg[s] = 0
		}
		for from, edges := range g.out {
			outDeg[from] += len(edges)
			for _, e := range edges {
				inDeg[e.to]++
			}
		}
		removeSet := map[*State]bool{}
		for _, s := range g.states {
			if s == start || s == end {
				continue
			}
			if inDeg[s] == 0 || outDeg[s] == 0 {
				removeSet[s] = true
			}
		}
		if len(removeSet) == 0 {
			return
		}
		g.removeStates(removeSet)
	}
}

func (g *bakeGraph) removeStates(removeSet map[*State]bool) {
	var kept []*State
	for _, s := range g.states {
		if removeSet[s] {
			delete(g.seen, s)
			continue
		}
		kept = append(kept, s)
	}
	g.states = kept
	for s := range removeSet {
		delete(g.out, s)
	}
	for from, edges := range g.out {
		var keptEdges []*edgeSpec
		for _, e := range edges {
			if !removeSet[e.to] {
				keptEdges = append(keptEdges, e)
			}
		}
		g.out[from] = keptEdges
	}
}

// normalizeOutgoing rescales every non-end state's outgoing
// probabilities to sum to 1. The sum is compared at 8 decimal places,
// so tiny accumulation noise does not trigger a rescale.
func (g *bakeGraph) normalizeOutgoing(end *State) {
	for from, edges := range g.out {
		if from == end || len(edges) == 0 {
			continue
		}
		var z float64
		for _, e := range edges {
			z += e.prob
		}
		z = roundTo8(z)
		if z == 0 || z == 1 {
			continue
		}
		for _, e := range edges {
			e.prob /= z
		}
	}
}

// mergeSilent collapses probability-1 edges a -> b where a is silent
// (and, under MergePartial, b is also silent), redirecting every edge
// that pointed into a so that it points into b instead. It iterates to
// a fixed point, scanning states in insertion order so the result does
// not depend on map iteration order.
func (g *bakeGraph) mergeSilent(start, end *State, policy MergePolicy) {
	for {
		var a, b *State
		var mergedPC float64
		for _, cand := range g.states {
			if cand == start || cand == end || !cand.Silent() {
				continue
			}
			for _, e := range g.out[cand] {
				if e.to == end || e.to == start {
					continue
				}
				if roundTo8(e.prob) != 1 {
					continue
				}
				if policy == MergePartial && !e.to.Silent() {
					continue
				}
				a, b, mergedPC = cand, e.to, e.pseudocount
				break
			}
			if a != nil {
				break
			}
		}
		if a == nil {
			return
		}
		g.redirectInto(a, b, mergedPC)
	}
}

// redirectInto removes a, redirecting every edge k -> a into k -> b.
// The redirected edge's pseudocount is max(original k->a pseudocount,
// mergedPC), where mergedPC is the collapsed probability-1 edge's own
// pseudocount.
func (g *bakeGraph) redirectInto(a, b *State, mergedPC float64) {
	for k, edges := range g.out {
		if k == a {
			continue
		}
		changed := false
		for _, e := range edges {
			if e.to == a {
				e.to = b
				if mergedPC > e.pseudocount {
					e.pseudocount = mergedPC
				}
				changed = true
			}
		}
		if changed {
			g.out[k] = edges
		}
	}
	delete(g.out, a)
	g.removeStates(map[*State]bool{a: true})
}

// findSilentCycle reports a cycle among silent states, if one exists,
// as the sequence of states forming it.
func (g *bakeGraph) findSilentCycle() []*State {
	const (
		white = iota
		gray
		black
	)
	color := map[*State]int{}
	var path []*State
	var cycle []*State

	var visit func(s *State) bool
	visit = func(s *State) bool {
		color[s] = gray
		path = append(path, s)
		for _, e := range g.out[s] {
			if !e.to.Silent() {
				continue
			}
			switch color[e.to] {
			case gray:
				cycle = append([]*State(nil), path...)
				return true
			case white:
				if visit(e.to) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[s] = black
		return false
	}

	for _, s := range g.states {
		if !s.Silent() || color[s] != white {
			continue
		}
		if visit(s) {
			return cycle
		}
	}
	return nil
}

// order partitions the remaining states into emitting (insertion
// order) followed by silent (topological order). Every edge between
// two silent states ends up going from a lower compiled index to a
// higher one, the invariant the DP kernels' silent relaxations rely
// on.
func (g *bakeGraph) order() ([]*State, int, error) {
	var emitting, silent []*State
	for _, s := range g.states {
		if s.Silent() {
			silent = append(silent, s)
		} else {
			emitting = append(emitting, s)
		}
	}
	topo, err := g.topoSortSilent(silent)
	if err != nil {
		return nil, 0, err
	}
	res := make([]*State, 0, len(emitting)+len(topo))
	res = append(res, emitting...)
	res = append(res, topo...)
	return res, len(emitting), nil
}

func (g *bakeGraph) topoSortSilent(silent []*State) ([]*State, error) {
	silentSet := map[*State]bool{}
	inDeg := map[*State]int{}
	for _, s := range silent {
		silentSet[s] = true
		inDeg[s] = 0
	}
	for _, s := range silent {
		for _, e := range g.out[s] {
			if silentSet[e.to] {
				inDeg[e.to]++
			}
		}
	}
	var queue []*State
	for _, s := range silent {
		if inDeg[s] == 0 {
			queue = append(queue, s)
		}
	}
	res := make([]*State, 0, len(silent))
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		res = append(res, s)
		for _, e := range g.out[s] {
			if !silentSet[e.to] {
				continue
			}
			inDeg[e.to]--
			if inDeg[e.to] == 0 {
				queue = append(queue, e.to)
			}
		}
	}
	if len(res) != len(silent) {
		return nil, &StructuralError{Err: errSilentCycle}
	}
	return res, nil
}

// buildTies discovers tie-equivalence classes among emitting states
// whose Dist fields are the same object. Each state's tie row lists
// the other members of its class, excluding itself.
func (g *bakeGraph) buildTies(m *Model) {
	n := m.silentStart
	groups := map[Distribution][]int{}
	for i := 0; i < n; i++ {
		d := m.states[i].Dist
		if d == nil {
			continue
		}
		groups[d] = append(groups[d], i)
	}
	tieOffset := make([]int, n+1)
	var tieMember []int
	for i := 0; i < n; i++ {
		tieOffset[i] = len(tieMember)
		d := m.states[i].Dist
		if d == nil {
			continue
		}
		for _, j := range groups[d] {
			if j != i {
				tieMember = append(tieMember, j)
			}
		}
	}
	tieOffset[n] = len(tieMember)
	m.tieOffset = tieOffset
	m.tieMember = tieMember
}

// buildEdges constructs the out/in CSR tables and the out->in mirror
// index that keeps the two views consistent under training updates.
func (g *bakeGraph) buildEdges(m *Model) {
	n := len(m.states)
	type inRec struct {
		from int
		e    *edgeSpec
	}
	outLists := make([][]*edgeSpec, n)
	inLists := make([][]inRec, n)
	for from, edges := range g.out {
		fi, ok := m.index[from]
		if !ok {
			continue
		}
		outLists[fi] = edges
		for _, e := range edges {
			ti := m.index[e.to]
			inLists[ti] = append(inLists[ti], inRec{from: fi, e: e})
		}
	}

	m.outOffset = make([]int, n+1)
	m.inOffset = make([]int, n+1)
	for i := 0; i < n; i++ {
		m.outOffset[i+1] = m.outOffset[i] + len(outLists[i])
		m.inOffset[i+1] = m.inOffset[i] + len(inLists[i])
	}
	m.outTarget = make([]int, m.outOffset[n])
	m.outLogP = make([]float64, m.outOffset[n])
	m.outPC = make([]float64, m.outOffset[n])
	m.outMirror = make([]int, m.outOffset[n])
	m.inSource = make([]int, m.inOffset[n])
	m.inLogP = make([]float64, m.inOffset[n])
	m.inPC = make([]float64, m.inOffset[n])

	inIndexOf := make(map[*edgeSpec]int, m.outOffset[n])
	for i := 0; i < n; i++ {
		base := m.inOffset[i]
		for j, rec := range inLists[i] {
			m.inSource[base+j] = rec.from
			m.inLogP[base+j] = math.Log(rec.e.prob)
			m.inPC[base+j] = rec.e.pseudocount
			inIndexOf[rec.e] = base + j
		}
	}

	for i := 0; i < n; i++ {
		base := m.outOffset[i]
		for j, e := range outLists[i] {
			ti := m.index[e.to]
			m.outTarget[base+j] = ti
			m.outLogP[base+j] = math.Log(e.prob)
			m.outPC[base+j] = e.pseudocount
			m.outMirror[base+j] = inIndexOf[e]
		}
	}
}
