// Package optimize implements batch gradient descent for least squares.
//
// GradientDescent minimizes the mean squared error of a linear model
// y ≈ Xβ with fixed-step steepest-descent updates
//
//	g      = (2/n)·Xᵀ(Xβ − y)
//	β_new  = β − α·g
//	d      = ‖β_new − β‖² / 2
//
// stopping when d < ε (converged) or after MaxIterations updates
// (exhausted). There is no line search and no step-size adaptation: a
// learning rate above StableLearningRate(X) makes the sequence diverge.
// Settings.DetectDivergence turns that case into an explicit status.
package optimize

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const algorithmName = "GradientDescent"

// Result is the outcome of one GradientDescent run.
type Result struct {
	// Estimate is the last computed parameter vector. For an exhausted or
	// diverged run it is a best-effort answer.
	Estimate *mat.VecDense

	// Iterations is the number of updates performed.
	Iterations int

	// Converged is true only for StatusConverged.
	Converged bool

	Status Status

	// FinalStep is the convergence statistic of the last update.
	FinalStep float64
}

// GradientDescent fits β for the design matrix X (n × (m+1), the intercept
// column included by the caller) and the target y (length n).
//
// Shape mismatches return a *errors.DimensionError and non-positive
// hyperparameters a *errors.ValidationError, both before any iteration.
// Hitting MaxIterations is not an error: the result reports
// StatusExhausted and an errors.ConvergenceWarning is raised through
// errors.Warn. With DetectDivergence set, a diverging run returns its
// result together with a *errors.NumericalInstabilityError.
//
// A nil s uses DefaultSettings.
func GradientDescent(X mat.Matrix, y mat.Vector, s *Settings) (res *Result, err error) {
	defer errors.Recover(&err, algorithmName)

	if s == nil {
		s = DefaultSettings()
	}

	n, p := X.Dims()
	if n == 0 || p == 0 {
		return nil, errors.NewModelError(algorithmName, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != n {
		return nil, errors.NewDimensionError(algorithmName, n, y.Len(), 0)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	beta, err := initialEstimate(p, s)
	if err != nil {
		return nil, err
	}
	if s.Recorder != nil {
		s.Recorder.Record(0, beta, 0)
	}

	grad := mat.NewVecDense(p, nil)
	var diff mat.VecDense
	for t := 0; t < s.MaxIterations; t++ {
		Gradient(grad, X, y, beta)

		// Each update gets a fresh vector; beta is never written after creation.
		next := mat.NewVecDense(p, nil)
		next.AddScaledVec(beta, -s.LearningRate, grad)

		diff.SubVec(next, beta)
		step := mat.Dot(&diff, &diff) / 2

		if s.Recorder != nil {
			s.Recorder.Record(t+1, next, step)
		}
		res = &Result{Estimate: next, Iterations: t + 1, FinalStep: step}

		if s.DetectDivergence {
			values := mat.Col(nil, 0, next)
			if derr := errors.CheckDivergence("gradient_update", values, s.DivergenceBound, t+1); derr != nil {
				res.Status = StatusDiverged
				return res, derr
			}
		}

		if step < s.Tolerance {
			res.Status = StatusConverged
			res.Converged = true
			return res, nil
		}
		beta = next
	}

	res.Status = StatusExhausted
	errors.Warn(&errors.ConvergenceWarning{
		Algorithm:  algorithmName,
		Iterations: res.Iterations,
		LastStep:   res.FinalStep,
		Tolerance:  s.Tolerance,
		Message:    fmt.Sprintf("step %.3g is not below tolerance %.3g", res.FinalStep, s.Tolerance),
	})
	return res, nil
}

func initialEstimate(p int, s *Settings) (*mat.VecDense, error) {
	if s.InitialGuess != nil {
		if len(s.InitialGuess) != p {
			return nil, errors.NewDimensionError(algorithmName, p, len(s.InitialGuess), 1)
		}
		// Copy so the caller's slice is never aliased by the loop.
		return mat.NewVecDense(p, append([]float64(nil), s.InitialGuess...)), nil
	}

	seed := s.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	guess := make([]float64, p)
	for i := range guess {
		guess[i] = rng.Float64()
	}
	return mat.NewVecDense(p, guess), nil
}
