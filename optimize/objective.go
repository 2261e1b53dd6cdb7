package optimize

import (
	"github.com/YuminosukeSato/gdlinear/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MSE returns the mean squared error ‖Xβ − y‖² / n.
func MSE(X mat.Matrix, y, beta mat.Vector) float64 {
	n, _ := X.Dims()
	var resid mat.VecDense
	resid.MulVec(X, beta)
	resid.SubVec(&resid, y)
	return mat.Dot(&resid, &resid) / float64(n)
}

// Gradient stores the gradient of MSE at beta, (2/n)·Xᵀ(Xβ − y), in dst.
// dst must not alias beta.
func Gradient(dst *mat.VecDense, X mat.Matrix, y, beta mat.Vector) {
	n, _ := X.Dims()
	var resid mat.VecDense
	resid.MulVec(X, beta)
	resid.SubVec(&resid, y)
	dst.MulVec(X.T(), &resid)
	dst.ScaleVec(2/float64(n), dst)
}

// StableLearningRate returns 2/L where L is the largest eigenvalue of the
// MSE Hessian (2/n)·XᵀX. Fixed steps strictly below this value make the MSE
// non-increasing from one iteration to the next.
func StableLearningRate(X mat.Matrix) (float64, error) {
	n, p := X.Dims()
	if n == 0 || p == 0 {
		return 0, errors.NewModelError("StableLearningRate", "empty data", errors.ErrEmptyData)
	}

	var hessian mat.SymDense
	hessian.SymOuterK(2/float64(n), X.T())

	var eig mat.EigenSym
	if ok := eig.Factorize(&hessian, false); !ok {
		return 0, errors.NewModelError("StableLearningRate", "eigendecomposition failed", nil)
	}
	values := eig.Values(nil)
	largest := values[len(values)-1]
	if largest <= 0 {
		return 0, errors.NewModelError("StableLearningRate", "zero design matrix", errors.ErrSingularMatrix)
	}
	return 2 / largest, nil
}
