package forecast

// Components is the additive decomposition of a prediction. Trend holds the growth and
// changepoint contributions and Seasonality the Fourier terms, so Trend + Seasonality is the
// prediction.
type Components struct {
	Trend       []float64 `json:"trend"`
	Seasonality []float64 `json:"seasonality"`
}
