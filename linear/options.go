package linear

import (
	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
)

// Option is a function that configures GDRegressor
type Option func(*GDRegressor)

// WithLearningRate sets the fixed step size α
func WithLearningRate(alpha float64) Option {
	return func(r *GDRegressor) {
		r.Params.LearningRate = alpha
	}
}

// WithTol sets the convergence threshold on ‖β_new − β‖²/2
func WithTol(tol float64) Option {
	return func(r *GDRegressor) {
		r.Params.Tol = tol
	}
}

// WithMaxIter sets the maximum number of updates
func WithMaxIter(n int) Option {
	return func(r *GDRegressor) {
		r.Params.MaxIter = n
	}
}

// WithInitialGuess sets the starting coefficients. With an intercept the
// intercept comes first, so the length is NFeatures+1.
func WithInitialGuess(beta []float64) Option {
	return func(r *GDRegressor) {
		r.Params.InitialGuess = append([]float64(nil), beta...)
	}
}

// WithRandomState seeds the random initial guess. 0 picks a random seed.
func WithRandomState(seed uint64) Option {
	return func(r *GDRegressor) {
		r.Params.RandomState = seed
	}
}

// WithDivergenceCheck stops fitting once the coefficient norm exceeds bound
// or becomes NaN/Inf. A bound <= 0 only checks NaN/Inf.
func WithDivergenceCheck(bound float64) Option {
	return func(r *GDRegressor) {
		r.Params.DetectDivergence = true
		r.Params.DivergenceBound = bound
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) Option {
	return func(r *GDRegressor) {
		r.Params.FitIntercept = fit
	}
}

// WithLogger replaces the component logger
func WithLogger(l log.Logger) Option {
	return func(r *GDRegressor) {
		r.logger = l
	}
}

// WithRecorder observes every estimate produced while fitting
func WithRecorder(rec optimize.Recorder) Option {
	return func(r *GDRegressor) {
		r.recorder = rec
	}
}
