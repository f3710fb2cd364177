package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Series is a synthetic inflation path used to exercise the fit in tests and benchmarks.
// Components are summed in place with Add.
type Series []float64

// generate evaluates fn at every index
func generate(n int, fn func(i int) float64) Series {
	s := make(Series, n)
	for i := range s {
		s[i] = fn(i)
	}
	return s
}

// GenerateMonthlyT returns n month start timestamps beginning with the month of start
func GenerateMonthlyT(n int, start time.Time) []time.Time {
	t := make([]time.Time, n)
	for i := range t {
		t[i] = AddMonths(start, i)
	}
	return t
}

// Add sums src into s and returns s for chaining
func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites every value whose timestamp falls in [start, end)
func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	for i, ti := range t[:len(s)] {
		if !ti.Before(start) && ti.Before(end) {
			s[i] = val
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	return generate(n, func(int) float64 { return val })
}

// GenerateLinearY returns a series growing by slope per point
func GenerateLinearY(n int, slope float64) Series {
	return generate(n, func(i int) float64 { return slope * float64(i) })
}

// GenerateWaveY returns a sine wave of the given amplitude over a period in seconds,
// evaluated at each timestamp's unix time shifted by timeOffset seconds
func GenerateWaveY(t []time.Time, amp, periodSec, order, timeOffset float64) Series {
	omega := 2.0 * math.Pi * order / periodSec
	return generate(len(t), func(i int) float64 {
		return amp * math.Sin(omega*(float64(t[i].Unix())+timeOffset))
	})
}

// GenerateNoise returns gaussian noise with the given standard deviation. The same seed always
// yields the same noise.
func GenerateNoise(n int, stddev float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed))
	return generate(n, func(int) float64 { return r.NormFloat64() * stddev })
}

// GenerateChange returns a regime shift that is zero before chpt and bias plus slope per
// elapsed month from chpt onwards
func GenerateChange(t []time.Time, chpt time.Time, bias, slope float64) Series {
	return generate(len(t), func(i int) float64 {
		if t[i].Before(chpt) {
			return 0
		}
		return bias + slope*float64(MonthsBetween(chpt, t[i]))
	})
}
