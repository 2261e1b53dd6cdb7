// Package config loads gdfit settings from defaults, an optional YAML file,
// GDLINEAR_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/gdlinear/optimize"
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
)

// EnvPrefix is prepended to every environment override, e.g.
// GDLINEAR_OPTIMIZER_LEARNING_RATE.
const EnvPrefix = "GDLINEAR"

type Config struct {
	Optimizer OptimizerConfig `mapstructure:"optimizer" yaml:"optimizer" json:"optimizer"`
	Data      DataConfig      `mapstructure:"data" yaml:"data" json:"data"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output" json:"output"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
}

type OptimizerConfig struct {
	LearningRate    float64 `mapstructure:"learning_rate" yaml:"learning_rate" json:"learning_rate" validate:"gt=0,finite"`
	Tolerance       float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance" validate:"gt=0,finite"`
	MaxIterations   int     `mapstructure:"max_iterations" yaml:"max_iterations" json:"max_iterations" validate:"gt=0"`
	Seed            uint64  `mapstructure:"seed" yaml:"seed" json:"seed"`
	CheckDivergence bool    `mapstructure:"check_divergence" yaml:"check_divergence" json:"check_divergence"`
	DivergenceBound float64 `mapstructure:"divergence_bound" yaml:"divergence_bound" json:"divergence_bound" validate:"gte=0"`
	FitIntercept    bool    `mapstructure:"fit_intercept" yaml:"fit_intercept" json:"fit_intercept"`
}

type DataConfig struct {
	// Path of the training CSV.
	Path string `mapstructure:"path" yaml:"path" json:"path"`
	// Target column; empty selects the last column.
	Target string `mapstructure:"target" yaml:"target" json:"target"`
	Scaler string `mapstructure:"scaler" yaml:"scaler" json:"scaler" validate:"oneof=standard minmax none"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format" validate:"oneof=json yaml"`
	// Optional artifact paths. Empty disables the artifact.
	Plot    string `mapstructure:"plot" yaml:"plot" json:"plot,omitempty"`
	Model   string `mapstructure:"model" yaml:"model" json:"model,omitempty"`
	Weights string `mapstructure:"weights" yaml:"weights" json:"weights,omitempty"`
}

// SetDefaults registers every key with its default so that environment
// overrides are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := optimize.DefaultSettings()
	v.SetDefault("optimizer.learning_rate", d.LearningRate)
	v.SetDefault("optimizer.tolerance", d.Tolerance)
	v.SetDefault("optimizer.max_iterations", d.MaxIterations)
	v.SetDefault("optimizer.seed", 0)
	v.SetDefault("optimizer.check_divergence", false)
	v.SetDefault("optimizer.divergence_bound", d.DivergenceBound)
	v.SetDefault("optimizer.fit_intercept", true)

	v.SetDefault("data.path", "")
	v.SetDefault("data.target", "")
	v.SetDefault("data.scaler", "none")

	v.SetDefault("output.format", "json")
	v.SetDefault("output.plot", "")
	v.SetDefault("output.model", "")
	v.SetDefault("output.weights", "")

	v.SetDefault("log_level", "warn")
}

// Load reads the configuration into v. path may be empty, in which case
// only defaults, environment and already bound flags apply.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finite rejects ±Inf, which gt=0 lets through.
func finite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// Validate checks the struct tags and reports the first failing field as
// an *errors.ValidationError.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("finite", finite); err != nil {
		return errors.Wrap(err, "failed to register validator")
	}
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return errors.NewValidationError(fe.Namespace(), "failed "+reason, fe.Value())
	}
	return errors.Wrap(err, "invalid config")
}
