package options

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/feature"
	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
)

// AutoChangepointRange is the leading fraction of the training history where automatic
// changepoints are placed
const AutoChangepointRange = 0.8

// Changepoint describes a point in time that will change the ongoing trend.
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by evenly placing N changepoints over the first 80% of the training window or a fixed list
// of changepoints. Each changepoint adds a slope change and, if enabled, a level shift.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	EnableBias          bool          `json:"enable_bias"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
}

func (c ChangepointOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := util.NewPrinter(w, prefix, indent)
	c.print(p, indentGrowth)
	return p.Err()
}

func (c ChangepointOptions) print(p *util.Printer, level int) {
	rows := make([][]string, 0, len(c.Changepoints))
	for _, chpt := range c.Changepoints {
		rows = append(rows, []string{chpt.Name, chpt.T.Format(time.DateOnly)})
	}
	printSection(p, level, "Changepoints", []string{"Name", "Datetime"}, rows)
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
	}
}

// GenerateAutoChangepoints places min(AutoNumChangepoints, floor(0.8*n)-1) changepoints on
// observed timestamps evenly spread over the first 80% of the sorted training times. The first
// timestamp never holds a changepoint since it would duplicate the growth feature. Replaces
// any existing changepoints.
func (c *ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto {
		return nil
	}

	if c.AutoNumChangepoints == 0 {
		c.AutoNumChangepoints = DefaultAutoNumChangepoints
	}

	hist := int(math.Floor(float64(len(t)) * AutoChangepointRange))
	n := min(c.AutoNumChangepoints, hist-1)
	if n <= 0 {
		c.Changepoints = nil
		return nil
	}

	chpts := make([]Changepoint, 0, n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(float64(i) * float64(hist-1) / float64(n)))
		chpts = append(
			chpts,
			NewChangepoint(fmt.Sprintf("auto_%02d", i), t[idx]),
		)
	}

	// replace existing changepoints
	c.Changepoints = chpts
	return chpts
}

// GenerateFeatures evaluates the changepoint features over the epoch seconds. Changepoints
// outside of the open training window are skipped since they would either never be observed
// or duplicate the growth features.
func (c ChangepointOptions) GenerateFeatures(epoch []float64, trainStartTime, trainEndTime time.Time) *feature.Set {
	feat := feature.NewSet()
	if !trainEndTime.After(trainStartTime) {
		return feat
	}

	scaled := feature.ScaleTime(epoch, trainStartTime, trainEndTime)
	for i, chpt := range c.Changepoints {
		if !chpt.T.After(trainStartTime) || !chpt.T.Before(trainEndTime) {
			continue
		}
		chptScaled := feature.ScaleTime(
			[]float64{float64(chpt.T.UnixNano()) / 1e9},
			trainStartTime, trainEndTime,
		)[0]

		chpntName := fmt.Sprintf("%02d", i)
		if chpt.Name != "" {
			chpntName = chpt.Name
		}

		chpntSlope := feature.NewChangepoint(chpntName, feature.ChangepointCompSlope)
		feat.Set(chpntSlope, chpntSlope.Generate(scaled, chptScaled))

		if c.EnableBias {
			chpntBias := feature.NewChangepoint(chpntName, feature.ChangepointCompBias)
			feat.Set(chpntBias, chpntBias.Generate(scaled, chptScaled))
		}
	}
	return feat
}
