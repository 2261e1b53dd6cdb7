package cmd

import (
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/gdlinear/core/model"
	"github.com/YuminosukeSato/gdlinear/datasets"
	"github.com/YuminosukeSato/gdlinear/internal/config"
	"github.com/YuminosukeSato/gdlinear/linear"
	"github.com/YuminosukeSato/gdlinear/metrics"
	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
	"github.com/YuminosukeSato/gdlinear/plot"
	"github.com/YuminosukeSato/gdlinear/preprocessing"
)

// flag name -> config key
var fitFlagKeys = map[string]string{
	"data":             "data.path",
	"target":           "data.target",
	"scaler":           "data.scaler",
	"lr":               "optimizer.learning_rate",
	"tol":              "optimizer.tolerance",
	"max-iter":         "optimizer.max_iterations",
	"seed":             "optimizer.seed",
	"check-divergence": "optimizer.check_divergence",
	"divergence-bound": "optimizer.divergence_bound",
	"fit-intercept":    "optimizer.fit_intercept",
	"format":           "output.format",
	"plot":             "output.plot",
	"model":            "output.model",
	"weights":          "output.weights",
}

func fitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a linear model to a CSV dataset by gradient descent",
		Long: `Fit y ≈ Xβ by batch gradient descent and print a report comparing the
result with the closed-form least-squares solution.

Reaching --max-iter without convergence is reported, not treated as a failure.
With --check-divergence a diverging run exits with an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.fit(cmd)
		},
	}

	d := optimize.DefaultSettings()
	f := cmd.Flags()
	f.String("data", "", "training CSV with a header row")
	f.String("target", "", "target column (default last column)")
	f.String("scaler", "none", "feature scaling: standard, minmax or none")
	f.Float64("lr", d.LearningRate, "learning rate α")
	f.Float64("tol", d.Tolerance, "convergence tolerance ε on ‖Δβ‖²/2")
	f.Int("max-iter", d.MaxIterations, "maximum number of iterations")
	f.Uint64("seed", 0, "seed of the random initial guess (0 = random)")
	f.Bool("check-divergence", false, "stop with an error once the coefficients diverge")
	f.Float64("divergence-bound", d.DivergenceBound, "coefficient norm treated as divergence")
	f.Bool("fit-intercept", true, "fit an intercept term")
	f.String("format", "json", "report format: json or yaml")
	f.String("plot", "", "write the loss curve to this image file (.png, .svg)")
	f.String("model", "", "save the fitted estimator (gob) to this file")
	f.String("weights", "", "save the coefficients as JSON to this file")
	for name, key := range fitFlagKeys {
		_ = a.v.BindPFlag(key, f.Lookup(name))
	}
	return cmd
}

func (a *app) fit(cmd *cobra.Command) error {
	cfg := a.cfg
	if cfg.Data.Path == "" {
		return errors.NewValidationError("data.path", "is required", cfg.Data.Path)
	}
	start := time.Now()

	ds, err := datasets.LoadCSV(cfg.Data.Path, cfg.Data.Target)
	if err != nil {
		return err
	}
	samples, features := ds.Dims()
	logger := a.logger.With(log.SourceKey, cfg.Data.Path)

	scaler, err := preprocessing.NewScaler(cfg.Data.Scaler)
	if err != nil {
		return err
	}
	Xs, err := scaler.FitTransform(ds.X)
	if err != nil {
		return err
	}

	var design mat.Matrix = Xs
	if cfg.Optimizer.FitIntercept {
		design = linear.AddIntercept(Xs)
	}
	yVec := mat.NewVecDense(samples, mat.Col(nil, 0, ds.Y))

	report := &FitReport{
		RunID:    a.runID,
		Data:     cfg.Data.Path,
		Target:   ds.Target,
		Samples:  samples,
		Features: features,
		Scaler:   cfg.Data.Scaler,
		Settings: cfg.Optimizer,
	}
	if stable, err := optimize.StableLearningRate(design); err == nil {
		report.StableLearningRate = stable
		if cfg.Optimizer.LearningRate >= stable {
			logger.Warn("Learning rate is above the stable bound",
				log.LearningRateKey, cfg.Optimizer.LearningRate,
				"stable_learning_rate", stable,
			)
		}
	}

	history := &optimize.History{}
	reg := linear.NewGDRegressor(a.regressorOptions(cfg.Optimizer, history)...)
	fitErr := reg.Fit(Xs, ds.Y)

	report.Status = reg.Status
	report.Converged = reg.Converged
	report.Iterations = reg.NIter
	report.FinalStep = reg.FinalStep

	if fitErr != nil {
		var numErr *errors.NumericalInstabilityError
		if !errors.As(fitErr, &numErr) {
			return fitErr
		}
		// A diverged run still gets a report, then fails the command.
		report.Error = fitErr.Error()
		report.DurationMs = time.Since(start).Milliseconds()
		if err := writeReport(cmd.OutOrStdout(), cfg.Output.Format, report); err != nil {
			return err
		}
		return fitErr
	}

	shift, scale := scaler.Affine()
	coef, err := preprocessing.UnscaleCoefficients(reg.Coefficients(), shift, scale)
	if err != nil {
		return err
	}
	report.Coefficients = a.compareWithClosedForm(ds, Xs, cfg.Optimizer.FitIntercept, shift, scale, coef, report)

	yHat, err := reg.Predict(Xs)
	if err != nil {
		return err
	}
	yPred, err := metrics.ColumnVector("fit", yHat)
	if err != nil {
		return err
	}
	if report.Metrics, err = metrics.Evaluate(yVec, yPred); err != nil {
		return err
	}

	if err := a.writeArtifacts(cfg.Output, reg, ds, coef, history, design, yVec, &report.Artifacts); err != nil {
		return err
	}

	report.DurationMs = time.Since(start).Milliseconds()
	logger.Info("Fit finished",
		log.SamplesKey, samples,
		log.FeaturesKey, features,
		log.StatusKey, report.Status.String(),
		log.IterationKey, report.Iterations,
		log.DurationMsKey, report.DurationMs,
	)
	return writeReport(cmd.OutOrStdout(), cfg.Output.Format, report)
}

func (a *app) regressorOptions(c config.OptimizerConfig, rec optimize.Recorder) []linear.Option {
	opts := []linear.Option{
		linear.WithLearningRate(c.LearningRate),
		linear.WithTol(c.Tolerance),
		linear.WithMaxIter(c.MaxIterations),
		linear.WithRandomState(c.Seed),
		linear.WithFitIntercept(c.FitIntercept),
		linear.WithLogger(a.logger),
		linear.WithRecorder(rec),
	}
	if c.CheckDivergence {
		opts = append(opts, linear.WithDivergenceCheck(c.DivergenceBound))
	}
	return opts
}

// compareWithClosedForm names the coefficients and attaches the
// normal-equation solution when XᵀX is invertible. The reference is fitted
// on the same scaled features with the same intercept setting, then mapped
// back to original units like the gradient-descent coefficients.
func (a *app) compareWithClosedForm(ds *datasets.Dataset, Xs mat.Matrix, fitIntercept bool,
	shift, scale, coef []float64, report *FitReport) []Coefficient {
	names := append([]string{"intercept"}, ds.Features...)
	out := make([]Coefficient, len(coef))
	for i := range coef {
		out[i] = Coefficient{Name: names[i], Value: coef[i]}
	}

	ref := linear.NewLinearRegression()
	ref.FitIntercept = fitIntercept
	if err := ref.Fit(Xs, ds.Y); err != nil {
		a.logger.Warn("Closed-form reference unavailable",
			log.ErrorCodeKey, log.ErrorSingularMatrix,
			"reason", err.Error(),
		)
		return out
	}
	refCoef, err := preprocessing.UnscaleCoefficients(ref.Coefficients(), shift, scale)
	if err != nil {
		a.logger.Warn("Closed-form reference unavailable", "reason", err.Error())
		return out
	}
	var maxDev float64
	for i, r := range refCoef {
		out[i].Reference = &r
		maxDev = math.Max(maxDev, math.Abs(coef[i]-r))
	}
	report.MaxDeviation = &maxDev
	return out
}

func (a *app) writeArtifacts(out config.OutputConfig, reg *linear.GDRegressor, ds *datasets.Dataset, coef []float64,
	history *optimize.History, design mat.Matrix, y mat.Vector, artifacts *Artifacts) error {
	if out.Plot != "" {
		if err := plot.LossCurve(history, design, y, out.Plot); err != nil {
			return err
		}
		artifacts.Plot = out.Plot
	}

	if out.Model != "" {
		if err := model.SaveModel(reg, out.Model); err != nil {
			return err
		}
		artifacts.Model = out.Model
	}

	if out.Weights != "" {
		w, err := reg.ExportWeights()
		if err != nil {
			return err
		}
		// Exported in original feature units.
		w.Intercept = coef[0]
		w.Coefficients = coef[1:]
		w.Features = ds.Features
		w.Metadata["run_id"] = a.runID
		w.Metadata["scaler"] = a.cfg.Data.Scaler
		data, err := w.ToJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(out.Weights, data, 0o644); err != nil {
			return errors.Wrap(err, "failed to write weights")
		}
		artifacts.Weights = out.Weights
	}
	return nil
}
