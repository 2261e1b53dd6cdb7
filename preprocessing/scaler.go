// Package preprocessing は特徴量のスケーリングを提供する
//
// 勾配降下法の収束速度は XᵀX の条件数に依存するため、特徴量のスケールが
// 大きく異なるデータでは学習前に標準化しておくと安定する。学習後は
// UnscaleCoefficients で元の単位の係数に戻せる。
package preprocessing

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/gdlinear/core/model"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Scaler は列ごとのアフィン変換 x' = (x - shift) / scale を学習する変換器
type Scaler interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
	// Affine は学習済みの shift と scale を返す
	Affine() (shift, scale []float64)
}

// スケール算出時にゼロとみなす閾値
const zeroScale = 1e-8

// Scaler の種類
const (
	KindStandard = "standard"
	KindMinMax   = "minmax"
	KindNone     = "none"
)

// NewScaler は種類名から Scaler を作成する
func NewScaler(kind string) (Scaler, error) {
	switch kind {
	case KindStandard:
		return NewStandardScalerDefault(), nil
	case KindMinMax:
		return NewMinMaxScalerDefault(), nil
	case KindNone, "":
		return &IdentityScaler{}, nil
	default:
		return nil, errors.NewValidationError("scaler", "must be one of standard, minmax, none", kind)
	}
}

// affine は Scaler 共通の変換処理
type affine struct {
	model.BaseEstimator

	// NFeatures は特徴量の数
	NFeatures int

	shift []float64
	scale []float64
}

func (a *affine) Affine() (shift, scale []float64) {
	return a.shift, a.scale
}

func (a *affine) check(name, op string, X mat.Matrix) (int, error) {
	if !a.IsFitted() {
		return 0, errors.NewNotFittedError(name, op)
	}
	r, c := X.Dims()
	if r == 0 {
		return 0, errors.NewModelError(name+"."+op, "empty data", errors.ErrEmptyData)
	}
	if c != a.NFeatures {
		return 0, errors.NewDimensionError(name+"."+op, a.NFeatures, c, 1)
	}
	return r, nil
}

func (a *affine) forward(name string, X mat.Matrix) (mat.Matrix, error) {
	r, err := a.check(name, "Transform", X)
	if err != nil {
		return nil, err
	}
	result := mat.NewDense(r, a.NFeatures, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - a.shift[j]) / a.scale[j]
	}, X)
	return result, nil
}

func (a *affine) inverse(name string, X mat.Matrix) (mat.Matrix, error) {
	r, err := a.check(name, "InverseTransform", X)
	if err != nil {
		return nil, err
	}
	result := mat.NewDense(r, a.NFeatures, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*a.scale[j] + a.shift[j]
	}, X)
	return result, nil
}

// columns は空データを拒否し、列ごとのスライスを返す
func columns(op string, X mat.Matrix) ([][]float64, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	cols := make([][]float64, c)
	for j := range cols {
		cols[j] = mat.Col(nil, j, X)
	}
	return cols, nil
}

// StandardScaler はデータを平均0、標準偏差1に変換する
// 標準偏差は母分散から求め、定数列のスケールは1とする
type StandardScaler struct {
	affine

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差
	Scale []float64

	// WithMean は平均を引くかどうか
	WithMean bool

	// WithStd は標準偏差で割るかどうか
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{WithMean: withMean, WithStd: withStd}
}

// NewStandardScalerDefault は平均・標準偏差の両方を使うStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	cols, err := columns("StandardScaler.Fit", X)
	if err != nil {
		return err
	}

	c := len(cols)
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j, col := range cols {
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1
		if std := math.Sqrt(variance); s.WithStd && std >= zeroScale {
			s.Scale[j] = std
		}
	}

	s.NFeatures = c
	s.shift, s.scale = s.Mean, s.Scale
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.forward("StandardScaler", X)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.inverse("StandardScaler", X)
}

func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)", s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はデータを FeatureRange（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	affine

	// DataMin, DataMax は学習データの最小値・最大値
	DataMin []float64
	DataMax []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{FeatureRange: featureRange}
}

// NewMinMaxScalerDefault は[0,1]範囲のMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0, 1})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	width := m.FeatureRange[1] - m.FeatureRange[0]
	if width <= 0 {
		return errors.NewValidationError("feature_range", "max must exceed min", m.FeatureRange)
	}
	cols, err := columns("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}

	c := len(cols)
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.shift = make([]float64, c)
	m.scale = make([]float64, c)
	for j, col := range cols {
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)

		dataRange := m.DataMax[j] - m.DataMin[j]
		if dataRange < zeroScale {
			dataRange = 1
		}
		// x' = (x - min)/range·width + lo を (x - shift)/scale の形に直す
		m.scale[j] = dataRange / width
		m.shift[j] = m.DataMin[j] - m.FeatureRange[0]*m.scale[j]
	}

	m.NFeatures = c
	m.SetFitted()
	return nil
}

// Transform は学習済みの最小値・最大値でデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return m.forward("MinMaxScaler", X)
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return m.inverse("MinMaxScaler", X)
}

func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])", m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}

// IdentityScaler は何も変換しない Scaler
type IdentityScaler struct {
	affine
}

func (s *IdentityScaler) Fit(X mat.Matrix) error {
	cols, err := columns("IdentityScaler.Fit", X)
	if err != nil {
		return err
	}
	s.NFeatures = len(cols)
	s.shift = make([]float64, s.NFeatures)
	s.scale = make([]float64, s.NFeatures)
	for j := range s.scale {
		s.scale[j] = 1
	}
	s.SetFitted()
	return nil
}

func (s *IdentityScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.forward("IdentityScaler", X)
}

func (s *IdentityScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *IdentityScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.inverse("IdentityScaler", X)
}

// UnscaleCoefficients はスケーリング後の特徴量で学習した係数
// [b', w'_1, ..., w'_m] を元の特徴量の係数に変換する
//
//	w_j = w'_j / scale_j
//	b   = b' - Σ w'_j·shift_j / scale_j
func UnscaleCoefficients(coef, shift, scale []float64) ([]float64, error) {
	m := len(coef) - 1
	if m < 0 {
		return nil, errors.NewValueError("UnscaleCoefficients", "coefficients must include the intercept")
	}
	if len(shift) != m || len(scale) != m {
		return nil, errors.NewDimensionError("UnscaleCoefficients", m, len(scale), 1)
	}

	out := make([]float64, m+1)
	out[0] = coef[0]
	for j := 0; j < m; j++ {
		out[j+1] = coef[j+1] / scale[j]
		out[0] -= out[j+1] * shift[j]
	}
	return out, nil
}
