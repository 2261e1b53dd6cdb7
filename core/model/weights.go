package model

import (
	"encoding/json"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
)

// ModelWeights は学習済み係数のJSON表現
type ModelWeights struct {
	// ModelType はモデルの種類（LinearRegression, GDRegressor）
	ModelType string `json:"model_type"`

	// Version は互換性チェック用のフォーマットバージョン
	Version string `json:"version"`

	// Coefficients は特徴量の係数（切片を含まない）
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Features は特徴量の名前（オプション）
	Features []string `json:"features,omitempty"`

	// Hyperparameters は学習率などのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`

	// Metadata は反復回数や収束状態など学習時の情報
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	IsFitted bool `json:"is_fitted"`
}

// WeightsFormatVersion は現在のModelWeightsフォーマット
const WeightsFormatVersion = "1.0"

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズし検証する
func (mw *ModelWeights) FromJSON(data []byte) error {
	if err := json.Unmarshal(data, mw); err != nil {
		return errors.Wrap(err, "failed to decode weights")
	}
	return mw.Validate()
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	}
	if mw.Version != WeightsFormatVersion {
		return errors.NewValidationError("version", "unsupported format version", mw.Version)
	}
	if !mw.IsFitted && len(mw.Coefficients) > 0 {
		return errors.NewValueError("ModelWeights.Validate", "unfitted model should not have coefficients")
	}
	if mw.IsFitted && len(mw.Coefficients) == 0 {
		return errors.NewValueError("ModelWeights.Validate", "fitted model must have coefficients")
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.Coefficients), len(mw.Features), 1)
	}
	return nil
}
