// Package metrics は回帰モデルの評価指標を提供する
package metrics

import (
	"math"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// residuals は入力を検証し yTrue, yPred, yTrue - yPred をスライスで返す
func residuals(op string, yTrue, yPred mat.Vector) (truth, pred, diff []float64, err error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}

	truth = mat.Col(nil, 0, yTrue)
	pred = mat.Col(nil, 0, yPred)
	diff = make([]float64, n)
	floats.SubTo(diff, truth, pred)
	return truth, pred, diff, nil
}

// MSE は平均二乗誤差 (1/n)·Σ(yTrue - yPred)² を計算する
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	_, _, diff, err := residuals("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// MSEMatrix は n×1 行列の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, err := ColumnVector("MSEMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	yp, err := ColumnVector("MSEMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return MSE(yt, yp)
}

// ColumnVector は n×1 行列をベクトルとして取り出す
func ColumnVector(op string, m mat.Matrix) (*mat.VecDense, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewValueError(op, "empty matrix")
	}
	if c != 1 {
		return nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}
	return mat.NewVecDense(r, mat.Col(nil, 0, m)), nil
}

// RMSE は平方根平均二乗誤差を計算する
func RMSE(yTrue, yPred mat.Vector) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差を計算する
func MAE(yTrue, yPred mat.Vector) (float64, error) {
	_, _, diff, err := residuals("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(diff, 1) / float64(len(diff)), nil
}

// R2Score は決定係数 1 - RSS/TSS を計算する
// yTrue の分散が0の場合はエラーを返す
func R2Score(yTrue, yPred mat.Vector) (float64, error) {
	truth, _, diff, err := residuals("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := stat.Mean(truth, nil)
	var tss float64
	for _, v := range truth {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - floats.Dot(diff, diff)/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する
// yTrue がゼロの要素は除外する
func MAPE(yTrue, yPred mat.Vector) (float64, error) {
	truth, _, diff, err := residuals("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	valid := 0
	for i, v := range truth {
		if v == 0 {
			continue
		}
		sum += math.Abs(diff[i]) / math.Abs(v)
		valid++
	}
	if valid == 0 {
		return 0, errors.Newf("MAPE: all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred)/Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred mat.Vector) (float64, error) {
	truth, _, diff, err := residuals("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	_, varTrue := stat.PopMeanVariance(truth, nil)
	if varTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}
	_, varDiff := stat.PopMeanVariance(diff, nil)
	return 1 - varDiff/varTrue, nil
}

// Report はCLIのレポートに載せる評価指標のまとめ
type Report struct {
	MSE  float64 `json:"mse" yaml:"mse"`
	RMSE float64 `json:"rmse" yaml:"rmse"`
	MAE  float64 `json:"mae" yaml:"mae"`
	// R2 は yTrue に分散がない場合 nil
	R2 *float64 `json:"r2,omitempty" yaml:"r2,omitempty"`
}

// Evaluate は主要な回帰指標をまとめて計算する
func Evaluate(yTrue, yPred mat.Vector) (*Report, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	report := &Report{MSE: mse, RMSE: math.Sqrt(mse), MAE: mae}
	if r2, err := R2Score(yTrue, yPred); err == nil {
		report.R2 = &r2
	}
	return report, nil
}
