// Package linearmodel is a collection of linear regression fitting implementations to be used
// in the forecaster
package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}

// checkDims validates that the design and target are set and have the same number of rows.
// noX is returned when the design matrix is missing.
func checkDims(x, y mat.Matrix, noX error) error {
	if x == nil {
		return noX
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, _ := x.Dims()
	ym, _ := y.Dims()
	if m != ym {
		return fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}
	return nil
}

// withIntercept prepends a column of ones to the design matrix
func withIntercept(x mat.Matrix) mat.Matrix {
	m, n := x.Dims()
	res := mat.NewDense(m, n+1, nil)
	for i := 0; i < m; i++ {
		res.Set(i, 0, 1.0)
		for j := 0; j < n; j++ {
			res.Set(i, j+1, x.At(i, j))
		}
	}
	return res
}

func predict(x mat.Matrix, intercept float64, coef []float64) ([]float64, error) {
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	m, n := x.Dims()
	if n != len(coef) {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", n, len(coef), ErrFeatureLenMismatch)
	}

	out := make([]float64, m)
	if n == 0 {
		for i := range out {
			out[i] = intercept
		}
		return out, nil
	}

	var res mat.VecDense
	res.MulVec(x, mat.NewVecDense(n, append([]float64(nil), coef...)))
	for i := 0; i < m; i++ {
		out[i] = res.AtVec(i) + intercept
	}
	return out, nil
}

func score(predicted []float64, y mat.Matrix) float64 {
	ySlice := mat.Col(nil, 0, y)
	r2 := stat.RSquaredFrom(predicted, ySlice, nil)
	if math.IsNaN(r2) {
		return 1.0
	}
	return r2
}
