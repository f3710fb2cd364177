// Package forecaster fits an additive trend and seasonality model to a monthly series and
// produces forecasts with uncertainty bounds on a contiguous monthly grid.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/forecast"
	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/stats"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/components"
)

var (
	ErrFit                  = errors.New("unable to fit forecast")
	ErrInvalidHorizon       = errors.New("horizon must be at least 1")
	ErrNoOptionsInModel     = errors.New("no options set in model")
	ErrUntrainedForecaster  = errors.New("forecaster has not been trained yet")
	ErrCannotInferInterval  = errors.New("cannot infer interval from training data time")
	ErrUninitializedResults = errors.New("uninitialized results")
)

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast *forecast.Forecast
	uncertainty    *UncertaintyModel

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
}

// New creates a new instance of a Forecaster using the provided options. If no options are
// provided a default is used.
func New(opt *Options) (*Forecaster, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	f := &Forecaster{
		opt: opt,
	}

	seriesForecast, err := forecast.New(f.opt.SeriesOptions)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize forecast series, %w", err)
	}
	f.seriesForecast = seriesForecast
	return f, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be
// generated from a previous forecaster call to Model().
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt, err := model.Options.Validate()
	if err != nil {
		return nil, err
	}
	opt.SeriesOptions = model.Series.Options

	seriesForecast, err := forecast.NewFromModel(model.Series)
	if err != nil {
		return nil, fmt.Errorf("unable to load from series model, %w", err)
	}
	uncertainty := model.Uncertainty
	f := &Forecaster{
		opt:            opt,
		seriesForecast: seriesForecast,
		uncertainty:    &uncertainty,
	}
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model. Every failure wraps ErrFit.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return fmt.Errorf("%w, %w", ErrFit, forecast.ErrUninitializedForecast)
	}

	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("%w, unable to create training dataset, %w", ErrFit, err)
	}
	f.fitTrainingData = td.Copy()

	mask, err := f.fitSeriesWithOutliers(td.T, td.Y)
	if err != nil {
		return fmt.Errorf("%w, %w", ErrFit, err)
	}

	// residual aligned with the training data, NaN where a point was dropped
	residual := f.seriesForecast.Residuals()
	f.residual = make([]float64, len(td.T))
	cleanT := make([]time.Time, 0, len(residual))
	cleanY := make([]float64, 0, len(residual))
	var j int
	for i := 0; i < len(td.T); i++ {
		if math.IsNaN(mask[i]) {
			f.residual[i] = math.NaN()
			continue
		}
		f.residual[i] = residual[j]
		cleanT = append(cleanT, td.T[i])
		cleanY = append(cleanY, mask[i])
		j++
	}

	f.uncertainty = NewUncertaintyModel(f.opt.UncertaintyOptions, cleanT, cleanY, residual)

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		return fmt.Errorf("%w, unable to get predicted values from training set, %w", ErrFit, err)
	}

	scores := f.seriesForecast.Scores()
	slog.Info("fit forecaster",
		"points", len(cleanT),
		"dropped", len(td.T)-len(cleanT),
		"mse", scores.MSE,
		"r2", scores.R2,
		"sigma", f.uncertainty.Sigma,
		"step_stddev", f.uncertainty.StepStdDev,
	)
	return nil
}

// fitSeriesWithOutliers fits the series and refits with outliers masked for each outlier pass.
// Returns the observations with dropped points set to NaN.
func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	masked := make([]float64, len(y))
	copy(masked, y)

	// iterate to remove outliers
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, masked); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		// break out if no outlier options provided or on the last pass
		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		residual := f.seriesForecast.Residuals()
		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}

		// residual indices skip points that are already masked
		cleanIdx := make([]int, 0, len(residual))
		for j, v := range masked {
			if !math.IsNaN(v) {
				cleanIdx = append(cleanIdx, j)
			}
		}

		// keep at least two points to fit
		if len(cleanIdx)-len(outlierIdxs) < 2 {
			break
		}
		for _, idx := range outlierIdxs {
			masked[cleanIdx[idx]] = math.NaN()
		}
		slog.Debug("masked outliers", "pass", i+1, "count", len(outlierIdxs))
	}
	return masked, nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per
// time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if f == nil || f.uncertainty == nil {
		return nil, ErrUntrainedForecaster
	}

	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}

	r := &Results{
		T:                append([]time.Time(nil), t...),
		Forecast:         seriesRes,
		SeriesComponents: seriesComp,
	}
	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))
	for i := range seriesRes {
		hw := f.uncertainty.HalfWidth(t[i])
		upper[i] = seriesRes[i] + hw
		lower[i] = seriesRes[i] - hw
	}
	r.Upper = upper
	r.Lower = lower
	return r, nil
}

// Grid returns the contiguous monthly grid from the first training month through horizon
// months past the last training month
func (f *Forecaster) Grid(horizon int) ([]time.Time, error) {
	if f == nil || f.seriesForecast == nil {
		return nil, ErrUntrainedForecaster
	}
	if horizon < 1 {
		return nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}
	start, end := f.seriesForecast.TrainingWindow()
	if start.IsZero() {
		return nil, ErrUntrainedForecaster
	}
	grid := timedataset.MonthGrid(start, end, f.opt.Frequency)
	return append(grid, timedataset.Horizon(end, horizon, f.opt.Frequency)...), nil
}

// ForecastSeries fits a forecaster on the observation series and predicts the monthly grid
// from the first observed month through horizon months past the last observed month
func ForecastSeries(series observation.Series, horizon int, opt *Options) (*Forecaster, *Results, error) {
	if horizon < 1 {
		return nil, nil, fmt.Errorf("got %d, %w", horizon, ErrInvalidHorizon)
	}

	f, err := New(opt)
	if err != nil {
		return nil, nil, err
	}
	if err := f.Fit(series.Times(), series.Values()); err != nil {
		return nil, nil, err
	}

	grid, err := f.Grid(horizon)
	if err != nil {
		return nil, nil, err
	}
	res, err := f.Predict(grid)
	if err != nil {
		return nil, nil, err
	}
	return f, res, nil
}

// Residuals returns the difference between the final series fit against the training data.
// Points dropped as missing or outliers are NaN.
func (f *Forecaster) Residuals() []float64 {
	return f.residual
}

// TrendComponent returns the trend component created by changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns the seasonality component after fitting the fourier series
func (f *Forecaster) SeasonalityComponent() []float64 {
	return f.seriesForecast.SeasonalityComponent()
}

// SeriesIntercept returns the intercept of the series fit
func (f *Forecaster) SeriesIntercept() float64 {
	return f.seriesForecast.Intercept()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// Scores returns the fit scores of the series model
func (f *Forecaster) Scores() forecast.Scores {
	return f.seriesForecast.Scores()
}

// Uncertainty returns the fit uncertainty model
func (f *Forecaster) Uncertainty() *UncertaintyModel {
	return f.uncertainty
}

// Model generates a serializeable representation of the fit options, series model, and
// uncertainty model. This can be used to initialize a new Forecaster for immediate predictions
// skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	if f == nil || f.uncertainty == nil {
		return Model{}, ErrUntrainedForecaster
	}
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	opt := *f.opt
	opt.SeriesOptions = seriesModel.Options
	m := Model{
		Options:     &opt,
		Series:      seriesModel,
		Uncertainty: *f.uncertainty,
	}
	return m, nil
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}

// PlotOpts sets the number of months to forecast out. By default will use 10% of the training
// size.
type PlotOpts struct {
	HorizonCnt int
}

// PlotFit uses the Apache Echarts library to generate an html page showing the resulting fit,
// model components, and fit residual
func (f *Forecaster) PlotFit(w io.Writer, opt *PlotOpts) error {
	td := f.TrainingData()
	if td == nil || len(td.T) < 2 {
		return ErrCannotInferInterval
	}
	lastTime := td.T[len(td.T)-1]

	horizonCnt := len(td.T) / 10
	if opt != nil {
		horizonCnt = opt.HorizonCnt
	}
	if horizonCnt < 1 {
		horizonCnt = 1
	}

	horizon := timedataset.Horizon(lastTime, horizonCnt, f.opt.Frequency)
	t := make([]time.Time, 0, len(td.T)+horizonCnt)
	t = append(t, td.T...)
	t = append(t, horizon...)

	zpad := make([]float64, horizonCnt)
	for i := range zpad {
		zpad[i] = math.NaN()
	}

	forecastRes, err := f.Predict(horizon)
	if err != nil {
		return fmt.Errorf("unable to predict with horizon, %w", err)
	}

	residuals := append([]float64(nil), f.Residuals()...)
	residuals = append(residuals, zpad...)

	fitComp := f.fitResults.SeriesComponents
	trendComp := append(append([]float64(nil), fitComp.Trend...), forecastRes.SeriesComponents.Trend...)
	seasonComp := append(append([]float64(nil), fitComp.Seasonality...), forecastRes.SeriesComponents.Seasonality...)

	page := components.NewPage()
	page.AddCharts(
		LineForecaster(td, f.fitResults, forecastRes),
		LineTSeries(
			"Forecast Components",
			[]string{"Trend", "Seasonality"},
			t,
			[][]float64{
				trendComp,
				seasonComp,
			},
		),
		LineTSeries(
			"Forecast Residual",
			[]string{"Residual"},
			t,
			[][]float64{residuals},
		),
	)
	return page.Render(w)
}
