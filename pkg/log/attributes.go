package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "GDRegressor".
	ModelNameKey = "model.name"

	// EstimatorIDKey identifies a specific estimator instance or CLI run.
	EstimatorIDKey = "estimator.id"

	// OperationKey is the operation being performed: fit, predict, score.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or subcommand emitting the entry.
	ComponentKey = "ml.component"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	SourceKey   = "data.source"
)

// Training progress and results.
const (
	DurationMsKey = "perf.duration_ms"
	LossKey       = "metrics.loss"
	R2ScoreKey    = "metrics.r2_score"
	IterationKey  = "training.iteration"
	ConvergedKey  = "training.converged"
	StatusKey     = "training.status"
	StepKey       = "training.step"
)

// Hyperparameters.
const (
	LearningRateKey  = "hyperparams.learning_rate"
	ToleranceKey     = "hyperparams.tolerance"
	MaxIterationsKey = "hyperparams.max_iterations"
	RandomSeedKey    = "config.random_seed"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorDivergence        = "NUMERIC_DIVERGENCE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
