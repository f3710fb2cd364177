package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/feature"
	"github.com/aouyang1/go-inflation-forecaster/forecast/options"
	"github.com/aouyang1/go-inflation-forecaster/linearmodel"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNonFiniteValue           = errors.New("training data contains infinite values")
	ErrDegenerateSeries         = errors.New("training data has no variation")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrNoModelOptions           = errors.New("model has no options")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into an intercept,
// trend components (based on changepoint times), and seasonal components.
type Forecast struct {
	opt    *options.Options
	scores *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels
	coef    []float64

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	trained bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used
func New(opt *options.Options) (*Forecast, error) {
	opt, err := opt.Copy().Validate()
	if err != nil {
		return nil, err
	}

	return &Forecast{opt: opt}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inference immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	if model.Options == nil {
		return nil, ErrNoModelOptions
	}

	labels, err := model.Weights.FeatureLabels()
	if err != nil {
		return nil, err
	}

	f := &Forecast{
		opt:            model.Options.Copy(),
		fLabels:        feature.NewLabels(labels),
		coef:           model.Weights.Coefficients(),
		trainStartTime: model.TrainStartTime,
		trainEndTime:   model.TrainEndTime,
		scores:         model.Scores,
		trained:        true,
	}
	return f, nil
}

// generateFeatures builds the regressors for the given times relative to the training window
func (f *Forecast) generateFeatures(t []time.Time) (*feature.Set, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	tFeat := f.opt.GenerateTimeFeatures(t, f.trainStartTime, f.trainEndTime)
	epoch, _ := tFeat.Get(feature.NewTime(options.LabelTimeEpoch))

	x := tFeat.Filter(feature.FeatureTypeGrowth)
	x.Update(f.opt.ChangepointOptions.GenerateFeatures(epoch, f.trainStartTime, f.trainEndTime))

	seasFeat, err := f.opt.GenerateFourierFeatures(tFeat)
	if err != nil {
		return nil, fmt.Errorf("unable to generate fourier features, %w", err)
	}
	x.Update(seasFeat)
	return x, nil
}

// resolveOptions fixes automatic changepoints and seasonality against the training times so
// that a trained model, and any model restored from it, generates the same features
func (f *Forecast) resolveOptions(t []time.Time) {
	if f.opt.ChangepointOptions.Auto {
		f.opt.ChangepointOptions.GenerateAutoChangepoints(t)
		f.opt.ChangepointOptions.Auto = false
	}

	f.opt.SeasonalityOptions = options.SeasonalityOptions{
		SeasonalityConfigs: f.opt.SeasonalityOptions.Resolve(t),
	}
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, and intercept
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}

	for i, v := range trainingData.Y {
		if math.IsInf(v, 0) {
			return fmt.Errorf("at %s, %w", trainingData.T[i].Format(time.DateOnly), ErrNonFiniteValue)
		}
	}

	// remove any NaNs from training set
	clean := trainingData.DropNaN()
	if clean.Len() < 2 {
		return fmt.Errorf("%d usable points, %w", clean.Len(), ErrInsufficientTrainingData)
	}
	if floats.Max(clean.Y) == floats.Min(clean.Y) {
		return ErrDegenerateSeries
	}

	f.trained = false
	f.trainStartTime = clean.T[0]
	f.trainEndTime = clean.T[len(clean.T)-1]
	f.resolveOptions(clean.T)

	// generate features
	x, err := f.generateFeatures(clean.T)
	if err != nil {
		return err
	}
	x.RemoveZeroOnlyFeatures()
	f.fLabels = x.Labels()

	// scale the observations so that the regularization is independent of the units
	yScale := math.Max(math.Abs(floats.Max(clean.Y)), math.Abs(floats.Min(clean.Y)))
	yScaled := make([]float64, len(clean.Y))
	floats.ScaleTo(yScaled, 1.0/yScale, clean.Y)

	features := x.Matrix(false)
	observations := mat.NewDense(len(yScaled), 1, yScaled)

	coef, err := f.fitCoefficients(features, observations)
	if err != nil {
		return err
	}
	floats.Scale(yScale, coef)
	f.coef = coef
	f.trained = true

	predicted, comp, err := f.Predict(clean.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, clean.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(clean.Y))
	floats.SubTo(residual, clean.Y, predicted)
	f.residual = residual

	slog.Debug("fit forecast",
		"points", clean.Len(),
		"features", f.fLabels.Len(),
		"changepoints", len(f.opt.ChangepointOptions.Changepoints),
		"mse", scores.MSE,
		"r2", scores.R2,
	)
	return nil
}

// fitCoefficients solves with ordinary least squares when no feature is penalized and the
// system is determined, otherwise with coordinate descent lasso
func (f *Forecast) fitCoefficients(x, y mat.Matrix) ([]float64, error) {
	m, n := x.Dims()
	lassoOpt := f.opt.NewLassoOptions(f.fLabels)

	if !lassoOpt.Penalized(n) && m >= n {
		ols, err := linearmodel.NewOLSRegression(&linearmodel.OLSOptions{FitIntercept: false})
		if err != nil {
			return nil, err
		}
		if err := ols.Fit(x, y); err == nil && allFinite(ols.Coef()) {
			return ols.Coef(), nil
		} else if err != nil {
			slog.Debug("ordinary least squares failed, falling back to lasso", "error", err.Error())
		}
	}

	lasso, err := linearmodel.NewLassoRegression(lassoOpt)
	if err != nil {
		return nil, err
	}
	if err := lasso.Fit(x, y); err != nil {
		return nil, fmt.Errorf("unable to fit lasso regression, %w", err)
	}
	coef := lasso.Coef()
	if !allFinite(coef) {
		return nil, fmt.Errorf("lasso regression diverged, %w", ErrNonFiniteValue)
	}
	return coef, nil
}

func allFinite(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}

	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	// generate features
	x, err := f.generateFeatures(t)
	if err != nil {
		return nil, Components{}, err
	}

	trendSet := x.Filter(feature.FeatureTypeGrowth)
	trendSet.Update(x.Filter(feature.FeatureTypeChangepoint))

	comp := Components{
		Trend:       f.runInference(trendSet, len(t)),
		Seasonality: f.runInference(x.Filter(feature.FeatureTypeSeasonality), len(t)),
	}

	res := make([]float64, len(t))
	floats.AddTo(res, comp.Trend, comp.Seasonality)
	return res, comp, nil
}

// runInference multiplies the feature observations by the trained weights. Features without a
// trained weight contribute nothing.
func (f *Forecast) runInference(x *feature.Set, m int) []float64 {
	res := make([]float64, m)
	if x.Len() == 0 || m == 0 {
		return res
	}

	xLabels := x.Labels().Labels()
	xWeights := make([]float64, 0, len(xLabels))
	for _, xFeat := range xLabels {
		w := 0.0
		if wIdx, exists := f.fLabels.Index(xFeat); exists {
			w = f.coef[wIdx]
		}
		xWeights = append(xWeights, w)
	}

	var resVec mat.VecDense
	resVec.MulVec(x.Matrix(false), mat.NewVecDense(len(xWeights), xWeights))
	for i := range res {
		res[i] = resVec.AtVec(i)
	}
	return res
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}

	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Labels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the weight of the constant growth feature
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	if idx, exists := f.fLabels.Index(feature.Intercept()); exists {
		return f.coef[idx]
	}
	return 0
}

// Options returns a copy of the options the forecast was trained with. Automatic changepoints
// and seasonality are resolved after training.
func (f *Forecast) Options() *options.Options {
	if f == nil {
		return nil
	}
	return f.opt.Copy()
}

// TrainingWindow returns the first and last timestamps of the training data
func (f *Forecast) TrainingWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStartTime, f.trainEndTime
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, coefficients with their feature labels, and the model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Labels()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt.Copy(),
		Weights:        Weights{Coef: fws},
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	eq := "y ~ "

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	eq += fmt.Sprintf("%.2f", f.Intercept())
	for _, label := range f.fLabels.Labels() {
		if label.String() == feature.Intercept().String() {
			continue
		}
		w := coef[label.String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("+%.2f*%s", w, label)
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil {
		return Scores{}
	}
	if f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns the training observations minus the fit, skipping missing observations
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the model over the training data
// which is determined by the growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// SeasonalityComponent represents the overall seasonal component of the model over the
// training data
func (f *Forecast) SeasonalityComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Seasonality))
	copy(res, f.trainComponents.Seasonality)
	return res
}
