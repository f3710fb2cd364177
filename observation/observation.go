// Package observation holds the monthly observation series that feeds a forecast and the
// manual current month entry.
package observation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/cespare/xxhash/v2"
)

const (
	MinManualValue = 0.0
	MaxManualValue = 100.0
)

var (
	ErrUnnormalisedDate = errors.New("date is not the first day of a month at 00:00 UTC")
	ErrNonMonotonic     = errors.New("dates are not strictly increasing")
	ErrNonFiniteValue   = errors.New("value is not finite")
)

// Observation is a single monthly value. Date is the first day of the month at 00:00 UTC.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is a monthly observation series sorted ascending by date with one row per month
type Series []Observation

// New builds a series from unsorted observations, normalising every date to the start of its
// month and sorting ascending. The result still needs Validate to reject duplicate months.
func New(obs []Observation) Series {
	s := make(Series, 0, len(obs))
	for _, o := range obs {
		s = append(s, Observation{Date: timedataset.StartOfMonth(o.Date), Value: o.Value})
	}
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Date.Before(s[j].Date)
	})
	return s
}

// Validate checks the series ordering, date normalisation and values
func (s Series) Validate() error {
	for i, o := range s {
		if !o.Date.Equal(timedataset.StartOfMonth(o.Date)) {
			return fmt.Errorf("row %d, %s, %w", i, o.Date, ErrUnnormalisedDate)
		}
		if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
			return fmt.Errorf("row %d, %s, %w", i, o.Date.Format(time.DateOnly), ErrNonFiniteValue)
		}
		if i > 0 && !o.Date.After(s[i-1].Date) {
			return fmt.Errorf("row %d, %s, %w", i, o.Date.Format(time.DateOnly), ErrNonMonotonic)
		}
	}
	return nil
}

func (s Series) Len() int {
	return len(s)
}

// Copy returns a copy of the series
func (s Series) Copy() Series {
	if s == nil {
		return nil
	}
	res := make(Series, len(s))
	copy(res, s)
	return res
}

// Contains reports whether the series has a row for the month containing t
func (s Series) Contains(t time.Time) bool {
	month := timedataset.StartOfMonth(t)
	idx := sort.Search(len(s), func(i int) bool {
		return !s[i].Date.Before(month)
	})
	return idx < len(s) && s[idx].Date.Equal(month)
}

// WithManualEntry returns a copy of the series with the value inserted for the month of now
// if that month has no row yet. The value is clamped to [0, 100]. Calling it again within the
// same month returns an unchanged copy.
func (s Series) WithManualEntry(value float64, now time.Time) Series {
	res := s.Copy()
	month := timedataset.StartOfMonth(now)
	if s.Contains(month) {
		return res
	}

	entry := Observation{Date: month, Value: ClampValue(value)}
	idx := sort.Search(len(res), func(i int) bool {
		return res[i].Date.After(month)
	})
	res = append(res, Observation{})
	copy(res[idx+1:], res[idx:])
	res[idx] = entry
	return res
}

// ClampValue bounds a manual entry to the accepted percentage range. NaN becomes the minimum.
func ClampValue(v float64) float64 {
	if math.IsNaN(v) {
		return MinManualValue
	}
	return math.Min(math.Max(v, MinManualValue), MaxManualValue)
}

// Tail returns a copy of the last n rows
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n > len(s) {
		n = len(s)
	}
	return s[len(s)-n:].Copy()
}

// Times returns the dates of the series
func (s Series) Times() []time.Time {
	t := make([]time.Time, 0, len(s))
	for _, o := range s {
		t = append(t, o.Date)
	}
	return t
}

// Values returns the values of the series
func (s Series) Values() []float64 {
	y := make([]float64, 0, len(s))
	for _, o := range s {
		y = append(y, o.Value)
	}
	return y
}

// Last returns the final observation and false if the series is empty
func (s Series) Last() (Observation, bool) {
	if len(s) == 0 {
		return Observation{}, false
	}
	return s[len(s)-1], true
}

// Hash returns a snapshot hash of the dates and values. Equal series always hash equally.
func (s Series) Hash() uint64 {
	d := xxhash.New()
	buf := make([]byte, 16)
	for _, o := range s {
		binary.LittleEndian.PutUint64(buf[:8], uint64(o.Date.Unix()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(o.Value))
		d.Write(buf)
	}
	return d.Sum64()
}
