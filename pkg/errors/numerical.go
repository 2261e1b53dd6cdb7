package errors

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error if numerical instability is detected.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single scalar value for numerical instability.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckDivergence reports a NumericalInstabilityError when values are not
// finite or their Euclidean norm exceeds bound. A non-positive bound disables
// the norm check.
func CheckDivergence(operation string, values []float64, bound float64, iteration int) error {
	if err := CheckNumericalStability(operation, values, iteration); err != nil {
		return err
	}
	if bound <= 0 {
		return nil
	}
	if norm := floats.Norm(values, 2); norm > bound || math.IsInf(norm, 0) {
		return NewNumericalInstabilityError(operation, values, iteration)
	}
	return nil
}
