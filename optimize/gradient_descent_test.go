package optimize

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// makeLinearData builds a design matrix with an intercept column of ones and
// one Uniform[0,1) feature, and y = Xβ + N(0, noise²).
func makeLinearData(n int, beta []float64, noise float64) (*mat.Dense, *mat.VecDense) {
	rng := rand.New(rand.NewPCG(42, 42))
	X := mat.NewDense(n, len(beta), nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j := 1; j < len(beta); j++ {
			X.Set(i, j, rng.Float64())
		}
		v := noise * rng.NormFloat64()
		for j := range beta {
			v += X.At(i, j) * beta[j]
		}
		y.SetVec(i, v)
	}
	return X, y
}

func normalEquation(t *testing.T, X mat.Matrix, y mat.Vector) *mat.VecDense {
	t.Helper()
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var xty mat.VecDense
	xty.MulVec(X.T(), y)
	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		t.Fatalf("normal equation: %v", err)
	}
	return &beta
}

func distance(a mat.Vector, b []float64) float64 {
	var sum float64
	for i := range b {
		d := a.AtVec(i) - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &warnings
}

func TestGradientDescent_RecoversTrueCoefficients(t *testing.T) {
	betaTrue := []float64{2, 7}
	X, y := makeLinearData(200, betaTrue, 0.1)

	res, err := GradientDescent(X, y, &Settings{
		LearningRate:  0.05,
		Tolerance:     1e-9,
		MaxIterations: 50000,
		Seed:          1,
	})
	if err != nil {
		t.Fatalf("GradientDescent: %v", err)
	}
	if !res.Converged || res.Status != StatusConverged {
		t.Fatalf("expected convergence, got status %v after %d iterations", res.Status, res.Iterations)
	}
	if d := distance(res.Estimate, betaTrue); d >= 0.5 {
		t.Errorf("‖estimate − β_true‖ = %v, want < 0.5 (estimate %v)", d, mat.Formatted(res.Estimate.T()))
	}
}

func TestGradientDescent_AgreesWithNormalEquation(t *testing.T) {
	tests := []struct {
		name string
		beta []float64
	}{
		{"simple", []float64{2, 7}},
		{"three features", []float64{-1, 0.5, 3, -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, y := makeLinearData(300, tt.beta, 0.3)
			stable, err := StableLearningRate(X)
			if err != nil {
				t.Fatal(err)
			}

			res, err := GradientDescent(X, y, &Settings{
				LearningRate:  0.5 * stable,
				Tolerance:     1e-16,
				MaxIterations: 200000,
				Seed:          7,
			})
			if err != nil {
				t.Fatal(err)
			}
			if !res.Converged {
				t.Fatalf("did not converge in %d iterations", res.Iterations)
			}

			closed := normalEquation(t, X, y)
			if d := distance(res.Estimate, closed.RawVector().Data); d > 1e-2 {
				t.Errorf("distance to closed form = %v, want <= 1e-2", d)
			}
		})
	}
}

func TestGradientDescent_MonotonicDecrease(t *testing.T) {
	silenceWarnings(t)
	X, y := makeLinearData(100, []float64{2, 7, -3}, 0.5)
	stable, err := StableLearningRate(X)
	if err != nil {
		t.Fatal(err)
	}

	for _, factor := range []float64{0.1, 0.5, 0.99} {
		history := &History{}
		_, err := GradientDescent(X, y, &Settings{
			LearningRate:  factor * stable,
			Tolerance:     1e-12,
			MaxIterations: 2000,
			Seed:          3,
			Recorder:      history,
		})
		if err != nil {
			t.Fatal(err)
		}

		losses := history.Losses(X, y)
		if len(losses) < 2 {
			t.Fatalf("factor %v: expected a recorded trajectory, got %d points", factor, len(losses))
		}
		for i := 1; i < len(losses); i++ {
			if losses[i] > losses[i-1]*(1+1e-12) {
				t.Fatalf("factor %v: MSE increased at iteration %d: %v -> %v", factor, i, losses[i-1], losses[i])
			}
		}
	}
}

func TestGradientDescent_NonConvergenceReported(t *testing.T) {
	warnings := silenceWarnings(t)
	X, y := makeLinearData(50, []float64{2, 7}, 0.1)

	res, err := GradientDescent(X, y, &Settings{
		LearningRate:  0.05,
		Tolerance:     1e-9,
		MaxIterations: 1,
		Seed:          1,
	})
	if err != nil {
		t.Fatalf("non-convergence must not be an error: %v", err)
	}
	if res.Converged {
		t.Error("expected Converged == false")
	}
	if res.Status != StatusExhausted {
		t.Errorf("Status = %v, want exhausted", res.Status)
	}
	if res.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", res.Iterations)
	}
	for i := 0; i < res.Estimate.Len(); i++ {
		if v := res.Estimate.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("estimate[%d] = %v, want finite", i, v)
		}
	}

	if len(*warnings) != 1 {
		t.Fatalf("expected one convergence warning, got %d", len(*warnings))
	}
	var cw *errors.ConvergenceWarning
	if !errors.As((*warnings)[0], &cw) || cw.Iterations != 1 {
		t.Errorf("unexpected warning %v", (*warnings)[0])
	}
}

// Without divergence detection the routine runs to the cap and hands back
// whatever the exploding sequence reached.
func TestGradientDescent_DivergenceUnchecked(t *testing.T) {
	silenceWarnings(t)
	X, y := makeLinearData(100, []float64{2, 7}, 0.1)

	res, err := GradientDescent(X, y, &Settings{
		LearningRate:  100,
		Tolerance:     1e-9,
		MaxIterations: 1000,
		Seed:          1,
	})
	if err != nil {
		t.Fatalf("unchecked divergence returned error: %v", err)
	}
	if res.Converged {
		t.Fatal("a diverging run must not report convergence")
	}
	if res.Status != StatusExhausted || res.Iterations != 1000 {
		t.Errorf("status %v after %d iterations, want exhausted after 1000", res.Status, res.Iterations)
	}

	values := res.Estimate.RawVector().Data
	huge := false
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e100 {
			huge = true
		}
	}
	if !huge {
		t.Errorf("expected a non-finite or huge estimate, got %v", values)
	}
}

func TestGradientDescent_DivergenceDetected(t *testing.T) {
	X, y := makeLinearData(100, []float64{2, 7}, 0.1)

	res, err := GradientDescent(X, y, &Settings{
		LearningRate:     100,
		Tolerance:        1e-9,
		MaxIterations:    1000,
		Seed:             1,
		DetectDivergence: true,
		DivergenceBound:  1e6,
	})
	if err == nil {
		t.Fatal("expected divergence error")
	}
	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %T: %v", err, err)
	}
	if res == nil || res.Status != StatusDiverged {
		t.Fatalf("expected diverged result, got %+v", res)
	}
	if res.Iterations >= 1000 || numErr.Iteration != res.Iterations {
		t.Errorf("divergence detected at %d (error says %d)", res.Iterations, numErr.Iteration)
	}
}

func TestGradientDescent_InputValidation(t *testing.T) {
	X, y := makeLinearData(10, []float64{2, 7}, 0)

	tests := []struct {
		name     string
		X        mat.Matrix
		y        mat.Vector
		settings *Settings
		check    func(t *testing.T, err error)
	}{
		{
			name:     "target length mismatch",
			X:        X,
			y:        mat.NewVecDense(9, nil),
			settings: DefaultSettings(),
			check: func(t *testing.T, err error) {
				var dimErr *errors.DimensionError
				if !errors.As(err, &dimErr) || dimErr.Axis != 0 || dimErr.Expected != 10 || dimErr.Got != 9 {
					t.Errorf("expected row DimensionError, got %v", err)
				}
			},
		},
		{
			name:     "initial guess length mismatch",
			X:        X,
			y:        y,
			settings: &Settings{LearningRate: 0.1, Tolerance: 1e-6, MaxIterations: 10, InitialGuess: []float64{1, 2, 3}},
			check: func(t *testing.T, err error) {
				var dimErr *errors.DimensionError
				if !errors.As(err, &dimErr) || dimErr.Axis != 1 {
					t.Errorf("expected feature DimensionError, got %v", err)
				}
			},
		},
		{
			name:     "zero learning rate",
			X:        X,
			y:        y,
			settings: &Settings{LearningRate: 0, Tolerance: 1e-6, MaxIterations: 10},
			check:    wantValidationError("learning_rate"),
		},
		{
			name:     "infinite learning rate",
			X:        X,
			y:        y,
			settings: &Settings{LearningRate: math.Inf(1), Tolerance: 1e-6, MaxIterations: 10},
			check:    wantValidationError("learning_rate"),
		},
		{
			name:     "negative tolerance",
			X:        X,
			y:        y,
			settings: &Settings{LearningRate: 0.1, Tolerance: -1, MaxIterations: 10},
			check:    wantValidationError("tolerance"),
		},
		{
			name:     "zero iterations",
			X:        X,
			y:        y,
			settings: &Settings{LearningRate: 0.1, Tolerance: 1e-6},
			check:    wantValidationError("max_iterations"),
		},
		{
			name:     "empty design matrix",
			X:        &mat.Dense{},
			y:        &mat.VecDense{},
			settings: DefaultSettings(),
			check: func(t *testing.T, err error) {
				if !errors.Is(err, errors.ErrEmptyData) {
					t.Errorf("expected ErrEmptyData, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := GradientDescent(tt.X, tt.y, tt.settings)
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
			tt.check(t, err)
		})
	}
}

func wantValidationError(param string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var valErr *errors.ValidationError
		if !errors.As(err, &valErr) || valErr.ParamName != param {
			t.Errorf("expected ValidationError for %s, got %v", param, err)
		}
	}
}

func TestGradientDescent_InitialGuessNotAliased(t *testing.T) {
	silenceWarnings(t)
	X, y := makeLinearData(20, []float64{2, 7}, 0)
	guess := []float64{0, 0}

	res, err := GradientDescent(X, y, &Settings{
		LearningRate:  0.1,
		Tolerance:     1e-10,
		MaxIterations: 10000,
		InitialGuess:  guess,
	})
	if err != nil {
		t.Fatal(err)
	}
	if guess[0] != 0 || guess[1] != 0 {
		t.Errorf("caller's guess was modified: %v", guess)
	}
	if res.Estimate.AtVec(1) == 0 {
		t.Error("estimate did not move")
	}
}

func TestGradientDescent_SeedIsReproducible(t *testing.T) {
	silenceWarnings(t)
	X, y := makeLinearData(20, []float64{2, 7}, 0.1)
	run := func() []float64 {
		res, err := GradientDescent(X, y, &Settings{LearningRate: 0.1, Tolerance: 1e-9, MaxIterations: 5, Seed: 99})
		if err != nil {
			t.Fatal(err)
		}
		return res.Estimate.RawVector().Data
	}

	if a, b := run(), run(); !floats.Equal(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestGradient_MatchesFiniteDifference(t *testing.T) {
	X, y := makeLinearData(30, []float64{1, -2, 4}, 0.2)
	beta := mat.NewVecDense(3, []float64{0.3, 0.1, -0.5})

	grad := mat.NewVecDense(3, nil)
	Gradient(grad, X, y, beta)

	const h = 1e-6
	for j := 0; j < 3; j++ {
		plus := mat.VecDenseCopyOf(beta)
		minus := mat.VecDenseCopyOf(beta)
		plus.SetVec(j, beta.AtVec(j)+h)
		minus.SetVec(j, beta.AtVec(j)-h)
		numeric := (MSE(X, y, plus) - MSE(X, y, minus)) / (2 * h)
		if math.Abs(numeric-grad.AtVec(j)) > 1e-5 {
			t.Errorf("grad[%d] = %v, finite difference %v", j, grad.AtVec(j), numeric)
		}
	}
}

func TestStatusString(t *testing.T) {
	for s, want := range map[Status]string{
		StatusConverged: "converged",
		StatusExhausted: "exhausted",
		StatusDiverged:  "diverged",
		Status(0):       "Status(0)",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}

	var parsed Status
	if err := parsed.UnmarshalText([]byte("exhausted")); err != nil || parsed != StatusExhausted {
		t.Errorf("UnmarshalText(exhausted) = %v, %v", parsed, err)
	}
	if err := parsed.UnmarshalText([]byte("bogus")); err == nil {
		t.Error("expected error for an unknown status")
	}
}

func BenchmarkGradientDescent(b *testing.B) {
	X, y := makeLinearData(1000, []float64{2, 7, -1, 0.5}, 0.1)
	stable, err := StableLearningRate(X)
	if err != nil {
		b.Fatal(err)
	}
	s := &Settings{LearningRate: 0.5 * stable, Tolerance: 1e-12, MaxIterations: 10000, Seed: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GradientDescent(X, y, s); err != nil {
			b.Fatal(err)
		}
	}
}
