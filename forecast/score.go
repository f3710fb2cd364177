package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrResLenMismatch = errors.New("predicted and actual have different lengths")

// Scores are in-sample goodness of fit measures. Masked observations are excluded.
type Scores struct {
	MSE  float64 `json:"mean_squared_error"`
	MAPE float64 `json:"mean_average_percent_error"`
	R2   float64 `json:"r_squared"`
}

// RMSE is the root mean squared error in units of the observations
func (s Scores) RMSE() float64 {
	return math.Sqrt(s.MSE)
}

func NewScores(predicted, actual []float64) (*Scores, error) {
	p, a, err := present(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to score fit, %w", err)
	}
	return &Scores{
		MSE:  mse(p, a),
		MAPE: mape(p, a),
		R2:   rSquared(p, a),
	}, nil
}

// MSE is the mean squared error over points where both values are present. 0 is a perfect fit.
func MSE(predicted, actual []float64) (float64, error) {
	p, a, err := present(predicted, actual)
	if err != nil {
		return 0, err
	}
	return mse(p, a), nil
}

// MAPE is the mean absolute percent error as a fraction. Zero actuals are skipped since the
// ratio is undefined there.
func MAPE(predicted, actual []float64) (float64, error) {
	p, a, err := present(predicted, actual)
	if err != nil {
		return 0, err
	}
	return mape(p, a), nil
}

// RSquared is the coefficient of determination. A constant actual series that is matched
// exactly scores 1.
func RSquared(predicted, actual []float64) (float64, error) {
	p, a, err := present(predicted, actual)
	if err != nil {
		return 0, err
	}
	return rSquared(p, a), nil
}

// present drops every index where either side is NaN
func present(predicted, actual []float64) ([]float64, []float64, error) {
	if len(predicted) != len(actual) {
		return nil, nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	p := make([]float64, 0, len(predicted))
	a := make([]float64, 0, len(actual))
	for i, v := range actual {
		if math.IsNaN(v) || math.IsNaN(predicted[i]) {
			continue
		}
		p = append(p, predicted[i])
		a = append(a, v)
	}
	return p, a, nil
}

func mse(p, a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	diff := make([]float64, len(a))
	floats.SubTo(diff, a, p)
	return floats.Dot(diff, diff) / float64(len(a))
}

func mape(p, a []float64) float64 {
	var sum float64
	var cnt int
	for i, v := range a {
		if v == 0 {
			continue
		}
		sum += math.Abs((v - p[i]) / v)
		cnt++
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}

func rSquared(p, a []float64) float64 {
	r2 := stat.RSquaredFrom(p, a, nil)
	if math.IsNaN(r2) {
		return 1.0
	}
	return r2
}
