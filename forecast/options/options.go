// Package options contains all forecast options for a linear fit of a univariate time series
package options

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/feature"
	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
	"github.com/aouyang1/go-inflation-forecaster/linearmodel"
)

const (
	LabelTimeEpoch = "epoch"

	LabelSeasYearly = "yearly"
)

const (
	DefaultRegularization      = 0.01
	DefaultChangepointPenalty  = 1.0
	DefaultSeasonalityPenalty  = 0.01
	DefaultGrowthPenalty       = 0.0
	DefaultYearlyOrders        = 10
	DefaultAutoNumChangepoints = 25
)

var (
	ErrUnknownTimeFeature  = errors.New("unknown time feature")
	ErrUnknownGrowthType   = errors.New("unknown growth type")
	ErrNegativeRegularizer = errors.New("negative regularization")
)

// Options configures a forecast by specifying the growth type, changepoints, seasonality order
// and a regularization parameter where higher values removes more features that contribute
// the least to the fit. Penalties scale the regularization per feature type.
type Options struct {
	GrowthType string `json:"growth_type"`

	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`

	// Lasso related options
	Regularization     float64 `json:"regularization"`
	GrowthPenalty      float64 `json:"growth_penalty"`
	ChangepointPenalty float64 `json:"changepoint_penalty"`
	SeasonalityPenalty float64 `json:"seasonality_penalty"`
	Iterations         int     `json:"iterations"`
	Tolerance          float64 `json:"tolerance"`
}

// NewDefaultOptions returns a set of default forecast options: linear growth with automatic
// changepoints and yearly seasonality when the data supports it
func NewDefaultOptions() *Options {
	return &Options{
		GrowthType:         feature.GrowthLinear,
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		Regularization:     DefaultRegularization,
		GrowthPenalty:      DefaultGrowthPenalty,
		ChangepointPenalty: DefaultChangepointPenalty,
		SeasonalityPenalty: DefaultSeasonalityPenalty,
		Iterations:         linearmodel.DefaultIterations,
		Tolerance:          linearmodel.DefaultTolerance,
	}
}

// Validate fills in unset iteration and tolerance settings and checks the remaining
// options. Returns the defaults if nil.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}

	switch o.GrowthType {
	case "", feature.GrowthIntercept, feature.GrowthLinear:
	default:
		return nil, fmt.Errorf("%q, %w", o.GrowthType, ErrUnknownGrowthType)
	}

	if o.Regularization < 0 || o.GrowthPenalty < 0 || o.ChangepointPenalty < 0 || o.SeasonalityPenalty < 0 {
		return nil, ErrNegativeRegularizer
	}
	if o.Iterations == 0 {
		o.Iterations = linearmodel.DefaultIterations
	}
	if o.Tolerance == 0 {
		o.Tolerance = linearmodel.DefaultTolerance
	}
	return o, nil
}

// Copy returns a deep copy of the options
func (o *Options) Copy() *Options {
	if o == nil {
		return nil
	}
	next := *o
	next.ChangepointOptions.Changepoints = append([]Changepoint(nil), o.ChangepointOptions.Changepoints...)
	next.SeasonalityOptions.SeasonalityConfigs = append([]SeasonalityConfig(nil), o.SeasonalityOptions.SeasonalityConfigs...)
	return &next
}

// NewLassoOptions returns the lasso options for a design matrix with the given feature labels
// in column order
func (o *Options) NewLassoOptions(labels *feature.Labels) *linearmodel.LassoOptions {
	lassoOpt := linearmodel.NewDefaultLassoOptions()
	lassoOpt.FitIntercept = false
	lassoOpt.Lambda = o.Regularization

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = linearmodel.DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = linearmodel.DefaultTolerance
	}

	penalty := make([]float64, 0, labels.Len())
	for _, f := range labels.Labels() {
		switch f.Type() {
		case feature.FeatureTypeChangepoint:
			penalty = append(penalty, o.ChangepointPenalty)
		case feature.FeatureTypeSeasonality:
			penalty = append(penalty, o.SeasonalityPenalty)
		default:
			penalty = append(penalty, o.GrowthPenalty)
		}
	}
	lassoOpt.PenaltyFactors = penalty
	return lassoOpt
}

// GenerateTimeFeatures returns the epoch time feature and the growth features for the given
// timestamps relative to the training window
func (o *Options) GenerateTimeFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	if o == nil {
		o = NewDefaultOptions()
	}

	tFeat := feature.NewSet()

	feat := feature.NewTime(LabelTimeEpoch)
	epoch := feat.Generate(t)
	tFeat.Set(feat, epoch)

	o.generateGrowthFeatures(epoch, trainStartTime, trainEndTime, tFeat)
	return tFeat
}

func (o *Options) generateGrowthFeatures(epoch []float64, trainStartTime, trainEndTime time.Time, tFeat *feature.Set) {
	if !trainEndTime.After(trainStartTime) {
		return
	}
	interceptFeat := feature.Intercept()
	tFeat.Set(interceptFeat, interceptFeat.Generate(epoch, trainStartTime, trainEndTime))

	if o.GrowthType == feature.GrowthLinear {
		linearFeat := feature.Linear()
		tFeat.Set(linearFeat, linearFeat.Generate(epoch, trainStartTime, trainEndTime))
	}
}

// GenerateFourierFeatures returns the sine and cosine features of every seasonality config
// evaluated over the epoch time feature
func (o *Options) GenerateFourierFeatures(feat *feature.Set) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	x := feature.NewSet()

	o.SeasonalityOptions.removeDuplicates()
	for _, seasCfg := range o.SeasonalityOptions.SeasonalityConfigs {
		orders := make([]int, 0, seasCfg.Orders)
		for i := 1; i <= seasCfg.Orders; i++ {
			orders = append(orders, i)
		}
		seasFeatures, err := generateFourierOrders(feat, orders, seasCfg.Period, seasCfg.Name)
		if err != nil {
			return nil, fmt.Errorf("unable to generate seasonality features for %q, %w", seasCfg.Name, err)
		}
		x.Update(seasFeatures)
	}
	return x, nil
}

func generateFourierOrders(tFeatures *feature.Set, orders []int, periodDur time.Duration, label string) (*feature.Set, error) {
	if tFeatures == nil {
		return nil, ErrUnknownTimeFeature
	}

	col := LabelTimeEpoch
	tFeat, exists := tFeatures.Get(feature.NewTime(col))
	if !exists {
		return nil, ErrUnknownTimeFeature
	}

	period := periodDur.Seconds()

	x := feature.NewSet()
	for _, order := range orders {
		sinFeat := feature.NewSeasonality(col+"_"+label, feature.FourierCompSin, order)
		cosFeat := feature.NewSeasonality(col+"_"+label, feature.FourierCompCos, order)
		x.Set(sinFeat, sinFeat.Generate(tFeat, order, period))
		x.Set(cosFeat, cosFeat.Generate(tFeat, order, period))
	}

	return x, nil
}

// TablePrint writes a summary of the options
func (o *Options) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if o == nil {
		return nil
	}
	p := util.NewPrinter(w, prefix, indent)
	p.Linef(indentGrowth, "Growth: %s", o.GrowthType)
	p.Linef(indentGrowth, "Regularization: %.3f (changepoint x%.2f, seasonality x%.2f)",
		o.Regularization, o.ChangepointPenalty, o.SeasonalityPenalty)
	o.SeasonalityOptions.print(p, indentGrowth)
	o.ChangepointOptions.print(p, indentGrowth)
	return p.Err()
}
