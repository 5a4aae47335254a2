package hmm

// PathStep is one entry of a decoded state path: State was occupied
// after T observations had been consumed (T ranges over [0, n]).
// Silent states appear as their own steps.
type PathStep struct {
	T     int
	State int
}
