package forecaster

import (
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// UncertaintyModel derives symmetric forecast bounds from the spread of the training residual
// and a random walk on the observations. At a time h observation intervals past the end of
// training the half width is z * sqrt(sigma^2 + stepStdDev^2 * h) where z is the normal quantile
// of the interval width.
type UncertaintyModel struct {
	IntervalWidth float64       `json:"interval_width"`
	Z             float64       `json:"z"`
	Sigma         float64       `json:"sigma"`
	StepStdDev    float64       `json:"step_stddev"`
	Interval      time.Duration `json:"interval"`
	TrainEndTime  time.Time     `json:"train_end_time"`
}

// NewUncertaintyModel fits the bound spreads. residual is the fit residual and t, y the
// observations used for the fit with no missing values.
func NewUncertaintyModel(opt UncertaintyOptions, t []time.Time, y, residual []float64) *UncertaintyModel {
	u := &UncertaintyModel{
		IntervalWidth: opt.IntervalWidth,
		Z:             distuv.UnitNormal.Quantile(0.5 + opt.IntervalWidth/2.0),
	}
	if len(t) > 0 {
		u.TrainEndTime = t[len(t)-1]
	}
	if interval, err := timedataset.TimeSlice(t).MedianInterval(); err == nil {
		u.Interval = interval
	}

	u.Sigma = stddev(residual)

	if len(y) >= 2 {
		diffs := make([]float64, 0, len(y)-1)
		for i := 1; i < len(y); i++ {
			diffs = append(diffs, y[i]-y[i-1])
		}
		if len(diffs) == 1 {
			u.StepStdDev = math.Abs(diffs[0])
		} else {
			u.StepStdDev = stddev(diffs)
		}
	}
	return u
}

func stddev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	sd := stat.StdDev(x, nil)
	if math.IsNaN(sd) || math.IsInf(sd, 0) {
		return 0
	}
	return sd
}

// Steps returns the number of observation intervals t lies past the end of training. In
// sample times return 0.
func (u *UncertaintyModel) Steps(t time.Time) float64 {
	if u == nil || u.Interval <= 0 || !t.After(u.TrainEndTime) {
		return 0
	}
	return float64(t.Sub(u.TrainEndTime)) / float64(u.Interval)
}

// HalfWidth returns the non-negative distance from the forecast to either bound at time t
func (u *UncertaintyModel) HalfWidth(t time.Time) float64 {
	if u == nil {
		return 0
	}
	hw := u.Z * math.Sqrt(u.Sigma*u.Sigma+u.StepStdDev*u.StepStdDev*u.Steps(t))
	if math.IsNaN(hw) || hw < 0 {
		return 0
	}
	return hw
}
