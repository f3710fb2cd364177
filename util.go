package forecaster

import (
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// lineValue converts NaNs to gaps in the chart
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}

func dateLabels(t []time.Time) []string {
	labels := make([]string, 0, len(t))
	for _, ts := range t {
		labels = append(labels, ts.Format(time.DateOnly))
	}
	return labels
}

// LineTSeries generates an echart multi-line chart for some arbitrary time/value combination. The input
// y is a slice of series that must have the same length as the input time slice. NaNs are drawn as gaps.
func LineTSeries(title string, seriesName []string, t []time.Time, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	lineData := make([][]opts.LineData, len(y))
	for i := 0; i < len(y); i++ {
		lineData[i] = make([]opts.LineData, 0, len(t))
		for j := 0; j < len(t); j++ {
			v := math.NaN()
			if j < len(y[i]) {
				v = y[i][j]
			}
			lineData[i] = append(lineData[i], lineValue(v))
		}
	}

	line = line.SetXAxis(dateLabels(t))
	for i, series := range seriesName {
		if i >= len(lineData) {
			break
		}
		line = line.AddSeries(series, lineData[i])
	}

	return line
}

// LineForecaster generates an echart line chart for a fit result plotting the training values
// along with the forecasted, upper, lower values over the training window and the horizon.
func LineForecaster(trainingData *timedataset.TimeDataset, fitRes, forecastRes *Results) *charts.Line {
	t := make([]time.Time, 0, trainingData.Len()+forecastRes.Len())
	t = append(t, trainingData.T...)
	t = append(t, forecastRes.T...)

	actual := make([]float64, 0, len(t))
	actual = append(actual, trainingData.Y...)
	for range forecastRes.T {
		actual = append(actual, math.NaN())
	}

	concat := func(a, b []float64) []float64 {
		return append(append(make([]float64, 0, len(a)+len(b)), a...), b...)
	}

	return LineTSeries(
		"Forecast Fit",
		[]string{"Actual", "Forecast", "Upper", "Lower"},
		t,
		[][]float64{
			actual,
			concat(fitRes.Forecast, forecastRes.Forecast),
			concat(fitRes.Upper, forecastRes.Upper),
			concat(fitRes.Lower, forecastRes.Lower),
		},
	)
}
