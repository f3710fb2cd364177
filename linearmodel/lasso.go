package linearmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultLambda     = 1.0
	DefaultIterations = 10000
	DefaultTolerance  = 1e-8
)

var (
	ErrNegativeLambda     = errors.New("negative lambda")
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrNegativePenalty    = errors.New("negative penalty factor")
	ErrPenaltyFactorLen   = errors.New("penalty factors do not have the same number of entries as training features")
	ErrWarmStartBetaSize  = errors.New("warm start beta does not have the same number of coefficients as training features")
)

// LassoOptions represents input options to run the Lasso Regression
type LassoOptions struct {
	// WarmStartBeta is used to prime the coordinate descent to reduce the training time if a previous
	// fit has been performed. Does not include the intercept.
	WarmStartBeta []float64

	// Lambda represents the L1 multiplier, controlling the regularization. Must be a non-negative. 0.0 results in converging
	// to Ordinary Least Squares (OLS).
	Lambda float64

	// PenaltyFactors scales lambda per feature column. A factor of 0 leaves the feature
	// unpenalized. Nil penalizes every feature equally.
	PenaltyFactors []float64

	// Iterations is the maximum number of times the fit loops through training all coefficients.
	Iterations int

	// Tolerance is the largest coefficient change relative to the largest coefficient on an
	// iteration to determine when to stop iterating.
	Tolerance float64

	// FitIntercept adds a constant 1.0 feature as the first column if set to true. The intercept
	// is never penalized.
	FitIntercept bool
}

// Validate runs basic validation on Lasso options
func (l *LassoOptions) Validate() (*LassoOptions, error) {
	if l == nil {
		l = NewDefaultLassoOptions()
	}

	if l.Lambda < 0 {
		return nil, ErrNegativeLambda
	}
	if l.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if l.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	for _, p := range l.PenaltyFactors {
		if p < 0 {
			return nil, ErrNegativePenalty
		}
	}
	return l, nil
}

// NewDefaultLassoOptions returns a default set of Lasso Regression options
func NewDefaultLassoOptions() *LassoOptions {
	return &LassoOptions{
		Lambda:       DefaultLambda,
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		FitIntercept: true,
	}
}

// Penalized reports whether any feature would be shrunk by the regularization
func (l *LassoOptions) Penalized(nFeatures int) bool {
	if l == nil || l.Lambda == 0 {
		return false
	}
	if l.PenaltyFactors == nil {
		return nFeatures > 0
	}
	for _, p := range l.PenaltyFactors {
		if p > 0 {
			return true
		}
	}
	return false
}

// LassoRegression computes the lasso regression using coordinate descent minimizing
// 0.5*||y - Xb||^2 + lambda*sum(p_j*|b_j|). lambda = 0 converges to OLS.
type LassoRegression struct {
	opt *LassoOptions

	coef       []float64
	intercept  float64
	iterations int
}

// NewLassoRegression initializes a Lasso model ready for fitting
func NewLassoRegression(opt *LassoOptions) (*LassoRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &LassoRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (l *LassoRegression) Fit(x, y mat.Matrix) error {
	if l.opt == nil {
		return ErrNoOptions
	}
	if err := checkDims(x, y, ErrNoTrainingMatrix); err != nil {
		return err
	}

	_, nFeat := x.Dims()
	if l.opt.PenaltyFactors != nil && len(l.opt.PenaltyFactors) != nFeat {
		return fmt.Errorf("got %d penalty factors for %d features, %w", len(l.opt.PenaltyFactors), nFeat, ErrPenaltyFactorLen)
	}
	if l.opt.WarmStartBeta != nil && len(l.opt.WarmStartBeta) != nFeat {
		return fmt.Errorf("warm start beta has %d features instead of %d, %w", len(l.opt.WarmStartBeta), nFeat, ErrWarmStartBetaSize)
	}

	if l.opt.FitIntercept {
		x = withIntercept(x)
	}
	_, n := x.Dims()

	// per feature penalty with the intercept left unpenalized
	gamma := make([]float64, n)
	offset := n - nFeat
	for j := 0; j < n; j++ {
		if j < offset {
			continue
		}
		p := 1.0
		if l.opt.PenaltyFactors != nil {
			p = l.opt.PenaltyFactors[j-offset]
		}
		gamma[j] = l.opt.Lambda * p
	}

	xcols := make([][]float64, n)
	xdot := make([]float64, n)
	for j := 0; j < n; j++ {
		xcols[j] = mat.Col(nil, j, x)
		xdot[j] = floats.Dot(xcols[j], xcols[j])
	}

	beta := make([]float64, n)
	if l.opt.WarmStartBeta != nil {
		copy(beta[offset:], l.opt.WarmStartBeta)
	}

	// residual = y - X*beta, updated incrementally on every coordinate step
	residual := mat.Col(nil, 0, y)
	for j := 0; j < n; j++ {
		if beta[j] != 0 {
			floats.AddScaled(residual, -beta[j], xcols[j])
		}
	}

	l.iterations = 0
	for i := 0; i < l.opt.Iterations; i++ {
		l.iterations++
		maxCoef := 0.0
		maxUpdate := 0.0

		for j := 0; j < n; j++ {
			if xdot[j] == 0 {
				beta[j] = 0
				continue
			}

			betaCurr := beta[j]
			rho := floats.Dot(xcols[j], residual) + xdot[j]*betaCurr
			betaNext := SoftThreshold(rho, gamma[j]) / xdot[j]

			if delta := betaNext - betaCurr; delta != 0 {
				floats.AddScaled(residual, -delta, xcols[j])
				maxUpdate = math.Max(maxUpdate, math.Abs(delta))
			}
			maxCoef = math.Max(maxCoef, math.Abs(betaNext))
			beta[j] = betaNext
		}

		// break early if we've achieved the desired tolerance
		if maxUpdate <= l.opt.Tolerance*maxCoef {
			break
		}
	}

	if l.opt.FitIntercept {
		l.intercept = beta[0]
		l.coef = beta[1:]
		return nil
	}
	l.coef = beta
	return nil
}

// Predict using the Lasso model
func (l *LassoRegression) Predict(x mat.Matrix) ([]float64, error) {
	if l.opt == nil {
		return nil, ErrNoOptions
	}
	return predict(x, l.intercept, l.coef)
}

// Score computes the coefficient of determination of the prediction
func (l *LassoRegression) Score(x, y mat.Matrix) (float64, error) {
	if l.opt == nil {
		return 0.0, ErrNoOptions
	}
	if err := checkDims(x, y, ErrNoDesignMatrix); err != nil {
		return 0.0, err
	}
	res, err := l.Predict(x)
	if err != nil {
		return 0.0, err
	}
	return score(res, y), nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (l *LassoRegression) Intercept() float64 {
	return l.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (l *LassoRegression) Coef() []float64 {
	c := make([]float64, len(l.coef))
	copy(c, l.coef)
	return c
}

// Iterations returns the number of coordinate descent sweeps of the last fit
func (l *LassoRegression) Iterations() int {
	return l.iterations
}

// SoftThreshold returns 0.0 if the value is less than or equal to the gamma input
func SoftThreshold(x, gamma float64) float64 {
	res := math.Max(0, math.Abs(x)-gamma)
	if math.Signbit(x) {
		return -res
	}
	return res
}
