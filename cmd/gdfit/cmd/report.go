package cmd

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/gdlinear/internal/config"
	"github.com/YuminosukeSato/gdlinear/metrics"
	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
)

// FitReport is the machine-readable outcome of `gdfit fit`.
type FitReport struct {
	RunID    string                 `json:"run_id" yaml:"run_id"`
	Data     string                 `json:"data" yaml:"data"`
	Target   string                 `json:"target" yaml:"target"`
	Samples  int                    `json:"samples" yaml:"samples"`
	Features int                    `json:"features" yaml:"features"`
	Scaler   string                 `json:"scaler" yaml:"scaler"`
	Settings config.OptimizerConfig `json:"settings" yaml:"settings"`

	Status     optimize.Status `json:"status" yaml:"status"`
	Converged  bool            `json:"converged" yaml:"converged"`
	Iterations int             `json:"iterations" yaml:"iterations"`
	FinalStep  float64         `json:"final_step" yaml:"final_step"`
	// StableLearningRate is 2/L for the scaled design matrix; fixed steps
	// at or above it do not decrease the loss monotonically.
	StableLearningRate float64 `json:"stable_learning_rate,omitempty" yaml:"stable_learning_rate,omitempty"`

	// Coefficients are in the units of the original features.
	Coefficients []Coefficient `json:"coefficients,omitempty" yaml:"coefficients,omitempty"`
	// MaxDeviation is the largest |gradient descent - normal equation|
	// over all coefficients.
	MaxDeviation *float64        `json:"max_deviation,omitempty" yaml:"max_deviation,omitempty"`
	Metrics      *metrics.Report `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	Artifacts  Artifacts `json:"artifacts" yaml:"artifacts"`
	DurationMs int64     `json:"duration_ms" yaml:"duration_ms"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

type Coefficient struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
	// Reference is the closed-form solution, absent when XᵀX is singular.
	Reference *float64 `json:"reference,omitempty" yaml:"reference,omitempty"`
}

type Artifacts struct {
	Plot    string `json:"plot,omitempty" yaml:"plot,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	Weights string `json:"weights,omitempty" yaml:"weights,omitempty"`
}

func writeReport(w io.Writer, format string, r *FitReport) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "failed to encode report")
		}
		return errors.Wrap(enc.Close(), "failed to flush report")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(r), "failed to encode report")
	}
}
