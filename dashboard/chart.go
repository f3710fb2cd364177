package dashboard

import (
	"io"
	"time"

	forecaster "github.com/aouyang1/go-inflation-forecaster"
	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	ChartTitle     = "Inflation Forecast"
	HistoryName    = "Historical Inflation"
	ForecastName   = "Forecast"
	LowerBoundName = "Lower Bound"
	UpperBoundName = "Upper Bound"
	XAxisName      = "Date"
	YAxisName      = "Inflation Rate (%)"
)

// NewChart overlays the historical observations and the forecast on the monthly grid of the
// results. Observations are placed by calendar month so they line up with either anchoring of
// the grid. Bounds are drawn as dashed lines when showBounds is set.
func NewChart(history observation.Series, res *forecaster.Results, showBounds bool) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: ChartTitle,
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{Title: ChartTitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "30px"}),
		charts.WithXAxisOpts(opts.XAxis{Name: XAxisName}),
		charts.WithYAxisOpts(opts.YAxis{Name: YAxisName}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "inside", Start: 0, End: 100},
			opts.DataZoom{Type: "slider", Start: 0, End: 100},
		),
	)
	if res.Len() == 0 {
		return line
	}

	line.SetXAxis(dateLabels(res.T))

	// observations outside of the grid are not drawn
	hist := make([]opts.LineData, len(res.T))
	for _, obs := range history {
		idx := timedataset.MonthsBetween(res.T[0], obs.Date)
		if idx < 0 || idx >= len(hist) {
			continue
		}
		hist[idx] = opts.LineData{Value: obs.Value}
	}

	line.AddSeries(HistoryName, hist,
		charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true)}),
	)
	line.AddSeries(ForecastName, lineData(res.Forecast))
	if showBounds {
		line.AddSeries(LowerBoundName, lineData(res.Lower),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
		)
		line.AddSeries(UpperBoundName, lineData(res.Upper),
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}),
		)
	}
	return line
}

// RenderChart writes the chart of the view as a standalone html page
func RenderChart(w io.Writer, v *View, showBounds bool) error {
	return NewChart(v.History, v.Results, showBounds).Render(w)
}

func lineData(y []float64) []opts.LineData {
	data := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		data = append(data, opts.LineData{Value: v})
	}
	return data
}

func dateLabels(t []time.Time) []string {
	labels := make([]string, 0, len(t))
	for _, ts := range t {
		labels = append(labels, ts.Format(time.DateOnly))
	}
	return labels
}
