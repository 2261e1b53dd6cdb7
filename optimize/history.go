package optimize

import (
	"gonum.org/v1/gonum/mat"
)

// Recorder observes the estimates of a run. iter is 0 for the initial
// estimate and t+1 for the estimate produced by update t. step is the
// convergence statistic of that update (0 for the initial estimate).
// estimate must not be retained; copy it if needed.
type Recorder interface {
	Record(iter int, estimate mat.Vector, step float64)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(iter int, estimate mat.Vector, step float64)

func (f RecorderFunc) Record(iter int, estimate mat.Vector, step float64) {
	f(iter, estimate, step)
}

// History is a Recorder keeping a copy of every estimate.
type History struct {
	Estimates [][]float64
	Steps     []float64
}

func (h *History) Record(_ int, estimate mat.Vector, step float64) {
	h.Estimates = append(h.Estimates, mat.Col(nil, 0, estimate))
	h.Steps = append(h.Steps, step)
}

// Len returns the number of recorded estimates, including the initial one.
func (h *History) Len() int {
	return len(h.Estimates)
}

// Losses evaluates the MSE of every recorded estimate.
func (h *History) Losses(X mat.Matrix, y mat.Vector) []float64 {
	losses := make([]float64, len(h.Estimates))
	for i, est := range h.Estimates {
		losses[i] = MSE(X, y, mat.NewVecDense(len(est), est))
	}
	return losses
}
