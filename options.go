package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/go-inflation-forecaster/forecast/options"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
)

const DefaultIntervalWidth = 0.8

var (
	ErrInvalidIntervalWidth = errors.New("interval width must be between 0 and 1 exclusive")
	ErrInvalidPercentiles   = errors.New("outlier percentiles must satisfy 0 <= lower < upper <= 1")
)

// OutlierOptions configures the number of refits that drop points whose residual falls outside
// the Tukey fences of the residual percentiles
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// UncertaintyOptions sets the coverage of the forecast bounds
type UncertaintyOptions struct {
	IntervalWidth float64 `json:"interval_width"`
}

func NewDefaultUncertaintyOptions() UncertaintyOptions {
	return UncertaintyOptions{IntervalWidth: DefaultIntervalWidth}
}

// Options configures the series fit, the uncertainty bounds, optional outlier removal and the
// anchoring of monthly timestamps on the prediction grid
type Options struct {
	SeriesOptions      *options.Options      `json:"series_options"`
	UncertaintyOptions UncertaintyOptions    `json:"uncertainty_options"`
	OutlierOptions     *OutlierOptions       `json:"outlier_options"`
	Frequency          timedataset.Frequency `json:"frequency"`
}

func NewDefaultOptions() *Options {
	return &Options{
		SeriesOptions:      options.NewDefaultOptions(),
		UncertaintyOptions: NewDefaultUncertaintyOptions(),
		Frequency:          timedataset.MonthStart,
	}
}

// Validate returns a validated copy of the options filling in defaults for unset fields.
// Returns the defaults if nil.
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		return NewDefaultOptions(), nil
	}

	res := *o
	seriesOpt, err := o.SeriesOptions.Copy().Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid series options, %w", err)
	}
	res.SeriesOptions = seriesOpt

	if res.UncertaintyOptions.IntervalWidth == 0 {
		res.UncertaintyOptions.IntervalWidth = DefaultIntervalWidth
	}
	if w := res.UncertaintyOptions.IntervalWidth; w <= 0 || w >= 1 {
		return nil, fmt.Errorf("got %.3f, %w", w, ErrInvalidIntervalWidth)
	}

	if o.OutlierOptions != nil {
		outlierOpt := *o.OutlierOptions
		if outlierOpt.LowerPercentile < 0 || outlierOpt.UpperPercentile > 1 ||
			outlierOpt.LowerPercentile >= outlierOpt.UpperPercentile {
			return nil, ErrInvalidPercentiles
		}
		res.OutlierOptions = &outlierOpt
	}

	if res.Frequency == "" {
		res.Frequency = timedataset.MonthStart
	}
	if _, err := timedataset.ParseFrequency(string(res.Frequency)); err != nil {
		return nil, err
	}
	return &res, nil
}
