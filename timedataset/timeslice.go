package timedataset

import (
	"slices"
	"time"
)

// TimeSlice is an ordered set of observation dates
type TimeSlice []time.Time

// Span returns the duration between the first and last time point
func (t TimeSlice) Span() time.Duration {
	if len(t) < 2 {
		return 0
	}
	return t[len(t)-1].Sub(t[0])
}

// Intervals returns the spacing between each pair of consecutive points
func (t TimeSlice) Intervals() []time.Duration {
	if len(t) < 2 {
		return nil
	}
	deltas := make([]time.Duration, len(t)-1)
	for i := range deltas {
		deltas[i] = t[i+1].Sub(t[i])
	}
	return deltas
}

// MedianInterval returns the median spacing between consecutive points. Calendar months
// vary between 28 and 31 days so the median is used over the mode.
func (t TimeSlice) MedianInterval() (time.Duration, error) {
	deltas := t.Intervals()
	if len(deltas) == 0 {
		return 0, ErrCannotInferFreq
	}
	slices.Sort(deltas)

	mid := len(deltas) / 2
	if len(deltas)%2 == 1 {
		return deltas[mid], nil
	}
	return (deltas[mid-1] + deltas[mid]) / 2, nil
}
