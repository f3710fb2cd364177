package forecaster

import (
	"time"

	"github.com/aouyang1/go-inflation-forecaster/forecast"
)

// Results holds the forecast with its bounds for each time point. Lower <= Forecast <= Upper
// holds at every index.
type Results struct {
	T                []time.Time         `json:"time"`
	Forecast         []float64           `json:"forecast"`
	Upper            []float64           `json:"upper"`
	Lower            []float64           `json:"lower"`
	SeriesComponents forecast.Components `json:"series_components"`
}

func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}

// Tail returns a copy of the last n points of the results
func (r *Results) Tail(n int) *Results {
	if r == nil {
		return nil
	}
	n = max(min(n, len(r.T)), 0)
	start := len(r.T) - n
	return &Results{
		T:        append([]time.Time(nil), r.T[start:]...),
		Forecast: append([]float64(nil), r.Forecast[start:]...),
		Upper:    append([]float64(nil), r.Upper[start:]...),
		Lower:    append([]float64(nil), r.Lower[start:]...),
		SeriesComponents: forecast.Components{
			Trend:       tailOf(r.SeriesComponents.Trend, n),
			Seasonality: tailOf(r.SeriesComponents.Seasonality, n),
		},
	}
}

func tailOf(x []float64, n int) []float64 {
	if len(x) < n {
		return nil
	}
	return append([]float64(nil), x[len(x)-n:]...)
}
