package linearmodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MaxCondition is the largest condition number of the design matrix accepted by the ordinary
// least squares solve
const MaxCondition = 1e12

// OLSOptions configures an ordinary least squares fit
type OLSOptions struct {
	// FitIntercept prepends a constant 1.0 column to the design matrix
	FitIntercept bool
}

func (o *OLSOptions) Validate() (*OLSOptions, error) {
	if o == nil {
		return NewDefaultOLSOptions(), nil
	}
	return o, nil
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{FitIntercept: true}
}

// OLSRegression solves the least squares problem through a QR factorization of the design
// matrix. Rank deficient designs are rejected instead of returning an arbitrary solution.
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
	cond      float64
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &OLSRegression{opt: opt}, nil
}

// Fit solves for the coefficients. The design needs at least as many rows as columns after
// the optional intercept column is added.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o == nil || o.opt == nil {
		return ErrNoOptions
	}
	if err := checkDims(x, y, ErrNoTrainingMatrix); err != nil {
		return err
	}
	if o.opt.FitIntercept {
		x = withIntercept(x)
	}

	m, n := x.Dims()
	if m < n {
		return fmt.Errorf("%d observations for %d features, %w", m, n, ErrUnderdetermined)
	}

	var qr mat.QR
	qr.Factorize(x)
	o.cond = qr.Cond()
	if math.IsNaN(o.cond) || o.cond > MaxCondition {
		return fmt.Errorf("condition number %.3g, %w", o.cond, ErrSingularMatrix)
	}

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, y); err != nil {
		return fmt.Errorf("%w, %w", ErrSingularMatrix, err)
	}
	c := mat.Col(nil, 0, &sol)

	o.intercept = 0
	if o.opt.FitIntercept {
		o.intercept, c = c[0], c[1:]
	}
	o.coef = c
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o == nil || o.opt == nil {
		return nil, ErrNoOptions
	}
	return predict(x, o.intercept, o.coef)
}

// Score returns the coefficient of determination of the fit on x against y
func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o == nil || o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if err := checkDims(x, y, ErrNoDesignMatrix); err != nil {
		return 0.0, err
	}
	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return score(res, y), nil
}

// Intercept is 0 unless FitIntercept is set
func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

// Coef returns a copy of the coefficients in column order of the design matrix
func (o *OLSRegression) Coef() []float64 {
	return append([]float64(nil), o.coef...)
}

// Cond returns the condition number of the last factorized design matrix
func (o *OLSRegression) Cond() float64 {
	return o.cond
}
