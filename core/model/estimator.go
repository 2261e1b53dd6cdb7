package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は回帰モデルのインターフェース
// LinearRegression（正規方程式）と GDRegressor（勾配降下法）が実装する
type Regressor interface {
	Fitter
	Predictor
	// Score は決定係数（R²）を計算する
	Score(X, y mat.Matrix) (float64, error)
	// Coefficients は切片を先頭に含む係数ベクトルを返す
	Coefficients() []float64
}
