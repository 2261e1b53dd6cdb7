// Package gdlinear fits linear least-squares models by batch gradient
// descent, with a closed-form solver alongside as the reference answer.
//
// # Installation
//
//	go get github.com/YuminosukeSato/gdlinear
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gdlinear/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // y = 1 + 2x
//	    X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
//	    y := mat.NewDense(4, 1, []float64{1, 3, 5, 7})
//
//	    reg := linear.NewGDRegressor(
//	        linear.WithLearningRate(0.1),
//	        linear.WithTol(1e-12),
//	        linear.WithMaxIter(10000),
//	    )
//	    if err := reg.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(reg.Status, reg.Coefficients()) // converged [≈1 ≈2]
//	}
//
// # Packages
//
//   - optimize: the gradient-descent loop, its settings, status and history
//   - linear: GDRegressor and the normal-equation LinearRegression
//   - metrics: MSE, RMSE, MAE, R² and friends
//   - preprocessing: feature scalers and coefficient un-scaling
//   - datasets: seeded synthetic data and CSV loading
//   - plot: loss curves rendered with gonum/plot
//   - core/model: estimator interfaces, gob persistence, JSON weights
//   - core/parallel: row-parallel helpers
//   - pkg/errors, pkg/log: typed errors, warnings and structured logging
//
// # Step size
//
// The learning rate is fixed. optimize.StableLearningRate returns the bound
// 2/L (L the largest eigenvalue of the MSE Hessian) below which the loss
// decreases at every step; above it the iterates diverge. Enable
// WithDivergenceCheck to stop such runs with a NumericalInstabilityError
// instead of returning non-finite coefficients. Running out of iterations
// is not an error: the status is "exhausted" and a ConvergenceWarning is
// raised through errors.Warn.
//
// # Command line
//
// cmd/gdfit wraps the library:
//
//	gdfit synth --samples 200 --beta 1,2,-3 --out data.csv
//	gdfit fit --data data.csv --lr 0.5 --tol 1e-12 --plot loss.png
//
// # License
//
// gdlinear is released under the MIT License.
package gdlinear
