package linear

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/YuminosukeSato/gdlinear/core/model"
	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
	"gonum.org/v1/gonum/mat"
)

func nopLogger() log.Logger {
	return log.NewZerologLogger(io.Discard, log.LevelError)
}

func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &warnings
}

func silenceBenchWarnings(b *testing.B) {
	errors.SetWarningHandler(func(error) {})
	b.Cleanup(func() { errors.SetWarningHandler(nil) })
}

func TestGDRegressor_MatchesLinearRegression(t *testing.T) {
	X, y := createBenchmarkData(200, 3)

	exact := NewLinearRegression()
	if err := exact.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	reg := NewGDRegressor(
		WithLearningRate(0.5),
		WithTol(1e-14),
		WithMaxIter(10000),
		WithRandomState(7),
		WithLogger(nopLogger()),
	)
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if !reg.Converged || reg.Status != optimize.StatusConverged {
		t.Fatalf("status = %v after %d iterations", reg.Status, reg.NIter)
	}

	want := exact.Coefficients()
	got := reg.Coefficients()
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-5 {
			t.Errorf("coefficient %d = %v, want %v", i, got[i], want[i])
		}
	}

	r2, err := reg.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if r2 < 0.99 {
		t.Errorf("R² = %v, want > 0.99", r2)
	}
}

func TestGDRegressor_WithoutIntercept(t *testing.T) {
	// y = 2x
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	reg := NewGDRegressor(
		WithFitIntercept(false),
		WithLearningRate(0.05),
		WithTol(1e-16),
		WithInitialGuess([]float64{0}),
		WithLogger(nopLogger()),
	)
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	coef := reg.Coefficients()
	if coef[0] != 0 {
		t.Errorf("intercept = %v, want 0", coef[0])
	}
	if math.Abs(coef[1]-2) > 1e-6 {
		t.Errorf("slope = %v, want 2", coef[1])
	}
}

func TestGDRegressor_Exhausted(t *testing.T) {
	warnings := silenceWarnings(t)
	logger, _ := log.NewTestLogger(log.LevelDebug)
	X, y := createBenchmarkData(50, 2)

	reg := NewGDRegressor(WithMaxIter(2), WithRandomState(3), WithLogger(logger))
	if err := reg.Fit(X, y); err != nil {
		t.Fatalf("exhausting the budget must not fail: %v", err)
	}

	if reg.Status != optimize.StatusExhausted || reg.Converged || reg.NIter != 2 {
		t.Errorf("unexpected result: status=%v converged=%v iterations=%d", reg.Status, reg.Converged, reg.NIter)
	}
	if !reg.IsFitted() {
		t.Error("an exhausted run still yields a usable model")
	}
	if len(*warnings) != 1 {
		t.Errorf("expected one convergence warning, got %d", len(*warnings))
	}
	if !logger.ContainsField(log.ErrorCodeKey, log.ErrorConvergence) {
		t.Error("expected a convergence failure log entry")
	}
}

func TestGDRegressor_DivergenceDetected(t *testing.T) {
	X, y := createBenchmarkData(50, 2)

	reg := NewGDRegressor(
		WithLearningRate(10),
		WithDivergenceCheck(1e6),
		WithRandomState(1),
		WithLogger(nopLogger()),
	)
	err := reg.Fit(X, y)

	var numErr *errors.NumericalInstabilityError
	if !errors.As(err, &numErr) {
		t.Fatalf("expected NumericalInstabilityError, got %v", err)
	}
	if reg.Status != optimize.StatusDiverged {
		t.Errorf("status = %v, want diverged", reg.Status)
	}
	if reg.IsFitted() {
		t.Error("a diverged model must not be fitted")
	}
}

func TestGDRegressor_InvalidInput(t *testing.T) {
	X, y := createBenchmarkData(10, 2)

	tests := []struct {
		name  string
		reg   *GDRegressor
		X, y  mat.Matrix
		check func(error) bool
	}{
		{
			name: "zero learning rate",
			reg:  NewGDRegressor(WithLearningRate(0), WithLogger(nopLogger())),
			X:    X, y: y,
			check: func(err error) bool {
				var v *errors.ValidationError
				return errors.As(err, &v) && v.ParamName == "learning_rate"
			},
		},
		{
			name: "negative tolerance",
			reg:  NewGDRegressor(WithTol(-1), WithLogger(nopLogger())),
			X:    X, y: y,
			check: func(err error) bool {
				var v *errors.ValidationError
				return errors.As(err, &v)
			},
		},
		{
			name: "row mismatch",
			reg:  NewGDRegressor(WithLogger(nopLogger())),
			X:    X, y: mat.NewDense(9, 1, nil),
			check: func(err error) bool {
				var d *errors.DimensionError
				return errors.As(err, &d) && d.Axis == 0
			},
		},
		{
			name: "initial guess length",
			reg:  NewGDRegressor(WithInitialGuess([]float64{1, 2}), WithLogger(nopLogger())),
			X:    X, y: y,
			check: func(err error) bool {
				var d *errors.DimensionError
				return errors.As(err, &d) && d.Expected == 3 && d.Got == 2
			},
		},
		{
			name: "empty data",
			reg:  NewGDRegressor(WithLogger(nopLogger())),
			X:    &mat.Dense{}, y: &mat.Dense{},
			check: func(err error) bool { return errors.Is(err, errors.ErrEmptyData) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reg.Fit(tt.X, tt.y)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			if tt.reg.IsFitted() {
				t.Error("model must stay unfitted")
			}
		})
	}
}

func TestGDRegressor_RefitWithInvalidDataClearsState(t *testing.T) {
	X, y := createBenchmarkData(50, 2)
	reg := NewGDRegressor(WithLearningRate(0.5), WithTol(1e-12), WithRandomState(3), WithLogger(nopLogger()))
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if !reg.Converged || reg.NIter == 0 {
		t.Fatalf("first fit: status = %v after %d iterations", reg.Status, reg.NIter)
	}

	if err := reg.Fit(X, mat.NewDense(49, 1, nil)); err == nil {
		t.Fatal("expected error for mismatched target")
	}
	if reg.IsFitted() {
		t.Error("model should be unfitted after a failed refit")
	}
	if reg.NIter != 0 || reg.Status != 0 || reg.Converged || reg.FinalStep != 0 {
		t.Errorf("stale state after failed refit: NIter=%d Status=%v Converged=%v FinalStep=%v",
			reg.NIter, reg.Status, reg.Converged, reg.FinalStep)
	}
}

func TestGDRegressor_PredictErrors(t *testing.T) {
	reg := NewGDRegressor(WithLogger(nopLogger()))
	if _, err := reg.Predict(mat.NewDense(1, 2, nil)); !isNotFitted(err) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
	if _, err := reg.Score(mat.NewDense(1, 2, nil), mat.NewDense(1, 1, nil)); !isNotFitted(err) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	X, y := createBenchmarkData(20, 2)
	silenceWarnings(t)
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	var dimErr *errors.DimensionError
	if _, err := reg.Predict(mat.NewDense(1, 3, nil)); !errors.As(err, &dimErr) || dimErr.Axis != 1 {
		t.Errorf("expected feature DimensionError, got %v", err)
	}
}

func TestGDRegressor_RecorderSeesEveryEstimate(t *testing.T) {
	silenceWarnings(t)
	X, y := createBenchmarkData(30, 2)

	var history optimize.History
	reg := NewGDRegressor(WithMaxIter(25), WithRecorder(&history), WithLogger(nopLogger()))
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if history.Len() != reg.NIter+1 {
		t.Errorf("history has %d estimates, want %d", history.Len(), reg.NIter+1)
	}
	last := history.Estimates[history.Len()-1]
	for i, c := range reg.Coefficients() {
		if last[i] != c {
			t.Errorf("last recorded estimate %v differs from coefficients %v", last, reg.Coefficients())
			break
		}
	}
}

func TestGDRegressor_Logging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	X, y := createBenchmarkData(40, 2)

	reg := NewGDRegressor(WithLearningRate(0.5), WithTol(1e-12), WithLogger(logger))
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	if !logger.ContainsMessage("Training started") || !logger.ContainsMessage("Training completed") {
		t.Error("expected start and completion entries")
	}
	if !logger.ContainsField(log.StatusKey, "converged") {
		t.Error("expected status field")
	}
	if !logger.ContainsField(log.EstimatorIDKey, reg.ID) {
		t.Error("expected estimator id on every entry")
	}

	logger.Clear()
	_ = reg.Fit(X, mat.NewDense(39, 1, nil))
	if !logger.ContainsField(log.ErrorCodeKey, log.ErrorDimensionMismatch) {
		t.Error("expected dimension mismatch code")
	}
}

func TestGDRegressor_GobRoundTrip(t *testing.T) {
	X, y := createBenchmarkData(40, 2)
	reg := NewGDRegressor(WithLearningRate(0.5), WithTol(1e-12), WithLogger(nopLogger()))
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := model.SaveModelToWriter(reg, &buf); err != nil {
		t.Fatal(err)
	}
	var loaded GDRegressor
	if err := model.LoadModelFromReader(&loaded, &buf); err != nil {
		t.Fatal(err)
	}
	loaded.SetLogger(nopLogger())

	if !loaded.IsFitted() || loaded.ID != reg.ID || loaded.Status != reg.Status || loaded.Params.LearningRate != reg.Params.LearningRate {
		t.Fatalf("loaded model differs: %+v", loaded)
	}
	want, _ := reg.Predict(X)
	got, err := loaded.Predict(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(want, got) {
		t.Error("predictions differ after reload")
	}
}

func TestGDRegressor_WeightsRoundTrip(t *testing.T) {
	X, y := createBenchmarkData(40, 2)
	reg := NewGDRegressor(WithLearningRate(0.5), WithTol(1e-12), WithLogger(nopLogger()))
	if err := reg.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	w, err := reg.ExportWeights()
	if err != nil {
		t.Fatal(err)
	}
	data, err := w.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded model.ModelWeights
	if err := decoded.FromJSON(data); err != nil {
		t.Fatal(err)
	}
	restored := NewGDRegressor(WithLogger(nopLogger()))
	if err := restored.ImportWeights(&decoded); err != nil {
		t.Fatal(err)
	}

	want := reg.Coefficients()
	for i, c := range restored.Coefficients() {
		if c != want[i] {
			t.Errorf("coefficient %d = %v, want %v", i, c, want[i])
		}
	}

	decoded.ModelType = "LinearRegression"
	if err := restored.ImportWeights(&decoded); err == nil {
		t.Error("expected model type mismatch")
	}
}
