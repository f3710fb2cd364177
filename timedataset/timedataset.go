package timedataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var (
	ErrNoTrainingData     = errors.New("no training data")
	ErrNonMontonic        = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch = errors.New("time feature has a different length than observations")
	ErrCannotInferFreq    = errors.New("cannot infer frequency from time slice")
)

// TimeDataset pairs observation dates with values. NaN values mark masked points such as
// removed outliers and are kept in place so indexes line up with the caller's input.
type TimeDataset struct {
	T []time.Time
	Y []float64
}

// NewUnivariateDataset validates and copies the input. Dates must be strictly increasing.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	switch {
	case len(y) == 0:
		return nil, ErrNoTrainingData
	case len(t) != len(y):
		return nil, fmt.Errorf("%d dates for %d values, %w", len(t), len(y), ErrDatasetLenMismatch)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("%s does not follow %s at index %d, %w",
				t[i].Format(time.DateOnly), t[i-1].Format(time.DateOnly), i, ErrNonMontonic)
		}
	}
	return &TimeDataset{T: slices.Clone(t), Y: slices.Clone(y)}, nil
}

func (td *TimeDataset) Copy() *TimeDataset {
	return &TimeDataset{T: slices.Clone(td.T), Y: slices.Clone(td.Y)}
}

// DropNaN returns a copy holding only the observed points
func (td *TimeDataset) DropNaN() *TimeDataset {
	n := td.Observed()
	out := &TimeDataset{
		T: make([]time.Time, 0, n),
		Y: make([]float64, 0, n),
	}
	for i, v := range td.Y {
		if !math.IsNaN(v) {
			out.T = append(out.T, td.T[i])
			out.Y = append(out.Y, v)
		}
	}
	return out
}

// Observed counts the points that are not masked
func (td *TimeDataset) Observed() int {
	if td == nil {
		return 0
	}
	var n int
	for _, v := range td.Y {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.T)
}
