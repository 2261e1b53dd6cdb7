package linear

import (
	"time"

	"github.com/YuminosukeSato/gdlinear/core/model"
	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"github.com/YuminosukeSato/gdlinear/pkg/log"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const gdModelName = "GDRegressor"

// GDParams はGDRegressorのハイパーパラメータ
type GDParams struct {
	LearningRate     float64
	Tol              float64
	MaxIter          int
	InitialGuess     []float64
	RandomState      uint64
	DetectDivergence bool
	DivergenceBound  float64
	FitIntercept     bool
}

// GDRegressor は勾配降下法で最小二乗問題を解く線形回帰モデル
//
// 公開フィールドはgobでそのまま保存・復元できる。ロガーとRecorderは
// 保存されないため、読み込み後は必要に応じて SetLogger で再設定する。
type GDRegressor struct {
	model.BaseEstimator

	ID     string
	Params GDParams

	Weights   *mat.VecDense // 重み（切片を含まない）
	Intercept float64
	NFeatures int

	// 直近の学習結果
	NIter     int
	Converged bool
	Status    optimize.Status
	FinalStep float64

	logger   log.Logger
	recorder optimize.Recorder
}

// NewGDRegressor は新しいGDRegressorを作成する
// デフォルトは optimize.DefaultSettings と同じ値で切片ありの設定
func NewGDRegressor(opts ...Option) *GDRegressor {
	defaults := optimize.DefaultSettings()
	r := &GDRegressor{
		ID: uuid.NewString(),
		Params: GDParams{
			LearningRate:    defaults.LearningRate,
			Tol:             defaults.Tolerance,
			MaxIter:         defaults.MaxIterations,
			DivergenceBound: defaults.DivergenceBound,
			FitIntercept:    true,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName(gdModelName)
	}
	r.logger = r.logger.With(log.ModelNameKey, gdModelName, log.EstimatorIDKey, r.ID)
	return r
}

// SetLogger はロガーを差し替える（gobで読み込んだモデル向け）
func (r *GDRegressor) SetLogger(l log.Logger) {
	r.logger = l.With(log.ModelNameKey, gdModelName, log.EstimatorIDKey, r.ID)
}

func (r *GDRegressor) getLogger() log.Logger {
	if r.logger == nil {
		r.SetLogger(log.GetLoggerWithName(gdModelName))
	}
	return r.logger
}

func (r *GDRegressor) settings() *optimize.Settings {
	return &optimize.Settings{
		LearningRate:     r.Params.LearningRate,
		Tolerance:        r.Params.Tol,
		MaxIterations:    r.Params.MaxIter,
		InitialGuess:     r.Params.InitialGuess,
		Seed:             r.Params.RandomState,
		DetectDivergence: r.Params.DetectDivergence,
		DivergenceBound:  r.Params.DivergenceBound,
		Recorder:         r.recorder,
	}
}

// Fit は勾配降下法でモデルを学習させる
//
// 最大反復回数に達した場合もエラーにはならない。Status が
// optimize.StatusExhausted になり、警告が errors.Warn で通知される。
// 発散検出が有効で発散した場合は *errors.NumericalInstabilityError を返し、
// モデルは未学習のままになる。
func (r *GDRegressor) Fit(X, y mat.Matrix) (err error) {
	const op = "GDRegressor.Fit"
	defer errors.Recover(&err, op)

	logger := r.getLogger().With(log.OperationKey, log.OperationFit)
	r.Reset()
	r.NIter, r.Status, r.Converged, r.FinalStep = 0, 0, false, 0

	if err := checkTrainingData(op, X, y); err != nil {
		logger.Error("Invalid training data", err, log.ErrorCodeKey, errorCode(err))
		return err
	}
	n, c := X.Dims()

	var design mat.Matrix = X
	if r.Params.FitIntercept {
		design = AddIntercept(X)
	}

	logger.Info("Training started",
		log.SamplesKey, n,
		log.FeaturesKey, c,
		log.LearningRateKey, r.Params.LearningRate,
		log.ToleranceKey, r.Params.Tol,
		log.MaxIterationsKey, r.Params.MaxIter,
	)

	start := time.Now()
	res, err := optimize.GradientDescent(design, columnToVec(y), r.settings())
	if res != nil {
		r.NIter = res.Iterations
		r.Status = res.Status
		r.Converged = res.Converged
		r.FinalStep = res.FinalStep
	}
	if err != nil {
		logger.Error("Training failed", err,
			log.ErrorCodeKey, errorCode(err),
			log.IterationKey, r.NIter,
		)
		return err
	}

	r.NFeatures = c
	if r.Params.FitIntercept {
		r.Intercept = res.Estimate.AtVec(0)
		r.Weights = mat.VecDenseCopyOf(res.Estimate.SliceVec(1, c+1))
	} else {
		r.Intercept = 0
		r.Weights = mat.VecDenseCopyOf(res.Estimate)
	}
	r.SetFitted()

	fields := []any{
		log.StatusKey, r.Status.String(),
		log.IterationKey, r.NIter,
		log.StepKey, r.FinalStep,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if r.Converged {
		logger.Info("Training completed", fields...)
	} else {
		logger.Warn("Training stopped before convergence", append(fields, log.ErrorCodeKey, log.ErrorConvergence)...)
	}
	return nil
}

// Predict は入力データに対する予測を行う
func (r *GDRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError(gdModelName, "Predict")
	}
	if err := checkPredictData("GDRegressor.Predict", r.NFeatures, X); err != nil {
		return nil, err
	}
	return predictLinear(X, r.Weights, r.Intercept), nil
}

// Score はモデルの決定係数（R²）を計算する
func (r *GDRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !r.IsFitted() {
		return 0, errors.NewNotFittedError(gdModelName, "Score")
	}
	return score(r, X, y)
}

// Coefficients は [切片, 重み...] を返す。切片なしの場合、先頭は0
func (r *GDRegressor) Coefficients() []float64 {
	if !r.IsFitted() {
		return nil
	}
	return append([]float64{r.Intercept}, mat.Col(nil, 0, r.Weights)...)
}

// ExportWeights は係数と学習結果をJSON用の ModelWeights に変換する
func (r *GDRegressor) ExportWeights() (*model.ModelWeights, error) {
	if !r.IsFitted() {
		return nil, errors.NewNotFittedError(gdModelName, "ExportWeights")
	}
	return &model.ModelWeights{
		ModelType:    gdModelName,
		Version:      model.WeightsFormatVersion,
		Coefficients: mat.Col(nil, 0, r.Weights),
		Intercept:    r.Intercept,
		Hyperparameters: map[string]interface{}{
			"learning_rate": r.Params.LearningRate,
			"tol":           r.Params.Tol,
			"max_iter":      r.Params.MaxIter,
			"fit_intercept": r.Params.FitIntercept,
			"random_state":  r.Params.RandomState,
		},
		Metadata: map[string]interface{}{
			"estimator_id": r.ID,
			"n_iter":       r.NIter,
			"converged":    r.Converged,
			"status":       r.Status.String(),
			"final_step":   r.FinalStep,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights は ModelWeights から係数を復元する
func (r *GDRegressor) ImportWeights(w *model.ModelWeights) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != gdModelName {
		return errors.NewValidationError("model_type", "expected "+gdModelName, w.ModelType)
	}
	if !w.IsFitted {
		return errors.NewNotFittedError(gdModelName, "ImportWeights")
	}

	r.NFeatures = len(w.Coefficients)
	r.Weights = mat.NewVecDense(r.NFeatures, append([]float64(nil), w.Coefficients...))
	r.Intercept = w.Intercept
	r.SetFitted()
	return nil
}

// errorCode はログ用のエラーコードを返す
func errorCode(err error) string {
	var (
		dimErr *errors.DimensionError
		valErr *errors.ValidationError
		numErr *errors.NumericalInstabilityError
	)
	switch {
	case errors.Is(err, errors.ErrEmptyData):
		return log.ErrorEmptyData
	case errors.As(err, &dimErr):
		return log.ErrorDimensionMismatch
	case errors.As(err, &valErr):
		return log.ErrorInvalidInput
	case errors.As(err, &numErr):
		return log.ErrorDivergence
	default:
		return log.ErrorInvalidInput
	}
}
