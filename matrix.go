package hmm

// Matrix is a dense, row-major table of float64 values. Forward and
// Backward return log-domain values; ForwardBackward's E and W are
// linear-scale (expected counts and posterior probabilities).
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

func newMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the value at (row, col).
func (mx *Matrix) At(row, col int) float64 {
	return mx.Data[row*mx.Cols+col]
}

func (mx *Matrix) set(row, col int, v float64) {
	mx.Data[row*mx.Cols+col] = v
}

func (mx *Matrix) row(r int) []float64 {
	return mx.Data[r*mx.Cols : (r+1)*mx.Cols]
}
