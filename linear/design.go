package linear

import (
	"github.com/YuminosukeSato/gdlinear/core/parallel"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// parallelThreshold 以下の行数では逐次処理を使用する
const parallelThreshold = 1000

// AddIntercept は X の先頭に 1 の列を追加した n×(m+1) の計画行列を返す
// 行数が多い場合は行ごとに並列でコピーする
func AddIntercept(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	design := mat.NewDense(r, c+1, nil)

	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			design.Set(i, 0, 1.0)
			for j := 0; j < c; j++ {
				design.Set(i, j+1, X.At(i, j))
			}
		}
	})
	return design
}

// columnToVec は n×1 の目的変数をベクトルにコピーする
func columnToVec(y mat.Matrix) *mat.VecDense {
	r, _ := y.Dims()
	return mat.NewVecDense(r, mat.Col(nil, 0, y))
}

// predictLinear は y = X·w + b を計算する
func predictLinear(X mat.Matrix, weights *mat.VecDense, intercept float64) *mat.Dense {
	r, _ := X.Dims()
	var out mat.VecDense
	out.MulVec(X, weights)

	predictions := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		predictions.Set(i, 0, out.AtVec(i)+intercept)
	}
	return predictions
}

// checkTrainingData は Fit の入力形状を検証する
func checkTrainingData(op string, X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError(op, r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError(op, "y must be a column vector")
	}
	return nil
}

// checkPredictData は Predict の入力形状を検証する
func checkPredictData(op string, nFeatures int, X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if c != nFeatures {
		return errors.NewDimensionError(op, nFeatures, c, 1)
	}
	return nil
}
