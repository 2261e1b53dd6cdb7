package linear

import (
	"github.com/YuminosukeSato/gdlinear/core/model"
	"github.com/YuminosukeSato/gdlinear/metrics"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LinearRegression は正規方程式で解く線形回帰モデル
// GDRegressor の結果を検証するための基準解として使う
type LinearRegression struct {
	model.BaseEstimator
	Weights   *mat.VecDense // 重み（係数）
	Intercept float64       // 切片
	NFeatures int           // 特徴量の数

	// FitIntercept が false の場合は原点を通る直線で当てはめ、Intercept は0
	FitIntercept bool
}

// NewLinearRegression は切片ありの線形回帰モデルを作成する
func NewLinearRegression() *LinearRegression {
	return &LinearRegression{FitIntercept: true}
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 β = (XᵀX)⁻¹·Xᵀy を使用
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	if err := checkTrainingData("LinearRegression.Fit", X, y); err != nil {
		return err
	}
	_, c := X.Dims()

	var design mat.Matrix = X
	if lr.FitIntercept {
		design = AddIntercept(X)
	}

	var xtx mat.Dense
	xtx.Mul(design.T(), design)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), columnToVec(y))

	_, p := design.Dims()
	beta := mat.NewVecDense(p, nil)
	beta.MulVec(&xtxInv, &xty)

	lr.NFeatures = c
	if lr.FitIntercept {
		lr.Intercept = beta.AtVec(0)
		lr.Weights = mat.VecDenseCopyOf(beta.SliceVec(1, p))
	} else {
		lr.Intercept = 0
		lr.Weights = beta
	}
	lr.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	if err := checkPredictData("LinearRegression.Predict", lr.NFeatures, X); err != nil {
		return nil, err
	}
	return predictLinear(X, lr.Weights, lr.Intercept), nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	return score(lr, X, y)
}

// Coefficients は [切片, 重み...] を返す
func (lr *LinearRegression) Coefficients() []float64 {
	if !lr.IsFitted() {
		return nil
	}
	return append([]float64{lr.Intercept}, lr.GetWeights()...)
}

// GetWeights は学習された重み（係数）を返す
func (lr *LinearRegression) GetWeights() []float64 {
	if lr.Weights == nil {
		return nil
	}
	return mat.Col(nil, 0, lr.Weights)
}

// GetIntercept は学習された切片を返す
func (lr *LinearRegression) GetIntercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.Intercept
}

// ExportWeights は係数をJSON用の ModelWeights に変換する
func (lr *LinearRegression) ExportWeights() (*model.ModelWeights, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "ExportWeights")
	}
	return &model.ModelWeights{
		ModelType:       "LinearRegression",
		Version:         model.WeightsFormatVersion,
		Coefficients:    lr.GetWeights(),
		Intercept:       lr.Intercept,
		Hyperparameters: map[string]interface{}{"solver": "normal_equation", "fit_intercept": lr.FitIntercept},
		IsFitted:        true,
	}, nil
}

// score は Predict の結果から R² を計算する
func score(p model.Predictor, X, y mat.Matrix) (float64, error) {
	yPred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector("Score", y)
	if err != nil {
		return 0, err
	}
	yHat, err := metrics.ColumnVector("Score", yPred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yHat)
}
