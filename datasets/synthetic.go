// Package datasets provides training data for the regressors: seeded
// synthetic linear data and CSV loading.
package datasets

import (
	"math/rand/v2"
	"strconv"

	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Dataset is a feature matrix with its target column.
type Dataset struct {
	X        *mat.Dense
	Y        *mat.Dense
	Features []string
	Target   string
}

// Dims returns the number of samples and features.
func (d *Dataset) Dims() (samples, features int) {
	return d.X.Dims()
}

// MakeRegression draws n samples of y = β0 + Σ βj·xj + ε with features
// uniform on [-1, 1) and ε ~ N(0, noise²). beta holds the intercept first,
// so the dataset has len(beta)-1 features. The same seed always yields the
// same data.
func MakeRegression(n int, beta []float64, noise float64, seed uint64) (*Dataset, error) {
	if n <= 0 {
		return nil, errors.NewValidationError("samples", "must be positive", n)
	}
	if len(beta) < 2 {
		return nil, errors.NewValidationError("coefficients", "need an intercept and at least one feature", beta)
	}
	if noise < 0 {
		return nil, errors.NewValidationError("noise", "must not be negative", noise)
	}

	m := len(beta) - 1
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	uniform := distuv.Uniform{Min: -1, Max: 1, Src: src}
	gauss := distuv.Normal{Mu: 0, Sigma: noise, Src: src}

	X := mat.NewDense(n, m, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := beta[0]
		for j := 0; j < m; j++ {
			x := uniform.Rand()
			X.Set(i, j, x)
			v += beta[j+1] * x
		}
		if noise > 0 {
			v += gauss.Rand()
		}
		y.Set(i, 0, v)
	}

	return &Dataset{X: X, Y: y, Features: defaultFeatureNames(m), Target: "y"}, nil
}

func defaultFeatureNames(m int) []string {
	names := make([]string, m)
	for j := range names {
		names[j] = "x" + strconv.Itoa(j+1)
	}
	return names
}
