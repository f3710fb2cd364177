package forecaster

import (
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
)

func setupWithOutliers() ([]time.Time, []float64, *Options) {
	n := 120
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	t := timedataset.GenerateMonthlyT(n, start)
	y := timedataset.GenerateConstY(n, 12.0).
		Add(timedataset.GenerateLinearY(n, 0.08)).
		Add(timedataset.GenerateWaveY(t, 1.2, 365.25*24*3600, 1.0, 0)).
		Add(timedataset.GenerateWaveY(t, 0.4, 365.25*24*3600, 2.0, 0)).
		Add(timedataset.GenerateChange(t, time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC), 3.0, 0.2)).
		Add(timedataset.GenerateNoise(n, 0.3, 11))

	// currency shocks
	y[37] += 9.0
	y[84] -= 6.0

	opt := NewDefaultOptions()
	opt.OutlierOptions = NewOutlierOptions()
	return t, y, opt
}

func Example_forecastSeries() {
	series := observation.Series{
		{Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), Value: 21.8},
		{Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), Value: 21.9},
	}

	_, res, err := ForecastSeries(series, 3, nil)
	if err != nil {
		panic(err)
	}

	tail := res.Tail(3)
	for i := range tail.T {
		fmt.Printf("%s %.3f %.3f %.3f\n",
			tail.T[i].Format(time.DateOnly), tail.Forecast[i], tail.Lower[i], tail.Upper[i])
	}
	// Output:
	// 2023-03-01 21.990 21.869 22.112
	// 2023-04-01 22.090 21.914 22.267
	// 2023-05-01 22.187 21.970 22.404
}

func Example_forecasterWithOutliers() {
	t, y, opt := setupWithOutliers()

	f, err := New(opt)
	if err != nil {
		panic(err)
	}
	if err := f.Fit(t, y); err != nil {
		panic(err)
	}

	var dropped int
	for _, r := range f.Residuals() {
		if math.IsNaN(r) {
			dropped++
		}
	}

	grid, err := f.Grid(12)
	if err != nil {
		panic(err)
	}
	res, err := f.Predict(grid)
	if err != nil {
		panic(err)
	}

	tail := res.Tail(12)
	fmt.Println("forecast months:", tail.Len())
	fmt.Println("first:", tail.T[0].Format(time.DateOnly))
	fmt.Println("outliers dropped:", dropped >= 2)
	// Output:
	// forecast months: 12
	// first: 2020-01-01
	// outliers dropped: true
}
