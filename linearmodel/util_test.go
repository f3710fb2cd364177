package linearmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testModel(t *testing.T, model Model, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol, "intercept")

	c := model.Coef()
	assert.InDeltaSlice(t, coef, c, tol, "coefficients")

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol, "score")
}

func denseFromRows(rows [][]float64) *mat.Dense {
	m := len(rows)
	n := len(rows[0])
	data := make([]float64, 0, m*n)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data)
}

// generateBenchData builds a monthly design of intercept, linear trend and yearly fourier
// terms over the given number of months
func generateBenchData(months, orders int) (mat.Matrix, mat.Matrix) {
	rows := make([][]float64, months)
	y := make([]float64, months)
	for i := 0; i < months; i++ {
		s := float64(i) / float64(months)
		row := []float64{1, s}
		for o := 1; o <= orders; o++ {
			row = append(row, sinMonth(i, o), cosMonth(i, o))
		}
		rows[i] = row
		y[i] = 12 + 4*s + 1.5*sinMonth(i, 1)
	}
	return denseFromRows(rows), mat.NewDense(months, 1, y)
}
