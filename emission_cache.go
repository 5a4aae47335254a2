package hmm

// emissionCache holds e[t][i], the log probability of observation t
// under emitting state i's distribution, computed once per kernel run.
// Forward, Backward and Viterbi each build their own; ForwardBackward
// shares one between its forward and backward passes.
type emissionCache struct {
	n           int
	silentStart int
	rows        [][]float64
}

func newEmissionCache(m *Model, seq []Obs) *emissionCache {
	n := len(seq)
	ss := m.silentStart
	c := &emissionCache{n: n, silentStart: ss, rows: make([][]float64, n)}
	for t := 0; t < n; t++ {
		row := make([]float64, ss)
		for i := 0; i < ss; i++ {
			row[i] = m.states[i].Dist.LogProbability(seq[t])
		}
		c.rows[t] = row
	}
	return c
}

func (c *emissionCache) at(t, i int) float64 {
	return c.rows[t][i]
}
