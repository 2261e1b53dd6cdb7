package optimize

import (
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
)

// Settings holds the hyperparameters of one GradientDescent run. They are
// read once before the loop starts and never modified by it.
type Settings struct {
	// LearningRate is the fixed step size α. Must be positive.
	LearningRate float64

	// Tolerance is ε: the run converges once ‖β_new − β‖² / 2 < ε. Must be positive.
	Tolerance float64

	// MaxIterations caps the number of updates. Must be positive.
	MaxIterations int

	// InitialGuess is the starting estimate. Its length must equal the
	// number of design-matrix columns. When nil every element is drawn
	// from Uniform[0, 1) using Seed.
	InitialGuess []float64

	// Seed seeds the initial-guess sampler. Zero picks a random seed.
	Seed uint64

	// DetectDivergence stops the run with StatusDiverged when the estimate
	// becomes non-finite or its norm exceeds DivergenceBound. Off by
	// default: an unchecked run with a too-large step keeps iterating to
	// MaxIterations and returns whatever it reached.
	DetectDivergence bool

	// DivergenceBound is the norm above which an estimate counts as
	// diverged. Non-positive values only check for NaN and Inf.
	DivergenceBound float64

	// Recorder, if set, observes the initial estimate (iteration 0) and
	// every estimate produced afterwards.
	Recorder Recorder
}

// Default hyperparameters.
const (
	DefaultLearningRate    = 0.01
	DefaultTolerance       = 1e-9
	DefaultMaxIterations   = 1000
	DefaultDivergenceBound = 1e150
)

// DefaultSettings returns Settings with the package defaults.
func DefaultSettings() *Settings {
	return &Settings{
		LearningRate:    DefaultLearningRate,
		Tolerance:       DefaultTolerance,
		MaxIterations:   DefaultMaxIterations,
		DivergenceBound: DefaultDivergenceBound,
	}
}

// Validate checks that the scalar hyperparameters are positive.
func (s *Settings) Validate() error {
	if err := errors.RequirePositive("learning_rate", s.LearningRate); err != nil {
		return err
	}
	if err := errors.RequirePositive("tolerance", s.Tolerance); err != nil {
		return err
	}
	if s.MaxIterations <= 0 {
		return errors.NewValidationError("max_iterations", "must be positive", s.MaxIterations)
	}
	return nil
}
