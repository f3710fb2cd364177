package observation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleSeries() Series {
	return Series{
		{Date: month(2023, time.January), Value: 21.8},
		{Date: month(2023, time.February), Value: 21.9},
		{Date: month(2023, time.April), Value: 22.2},
	}
}

func TestNew(t *testing.T) {
	s := New([]Observation{
		{Date: time.Date(2023, 2, 14, 8, 0, 0, 0, time.UTC), Value: 2},
		{Date: time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), Value: 1},
	})
	require.Len(t, s, 2)
	assert.Equal(t, month(2023, time.January), s[0].Date)
	assert.Equal(t, month(2023, time.February), s[1].Date)
	assert.Nil(t, s.Validate())
}

func TestValidate(t *testing.T) {
	testData := map[string]struct {
		s   Series
		err error
	}{
		"empty": {},
		"valid": {
			s: sampleSeries(),
		},
		"unnormalised": {
			s:   Series{{Date: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), Value: 1}},
			err: ErrUnnormalisedDate,
		},
		"duplicate month": {
			s: Series{
				{Date: month(2023, time.January), Value: 1},
				{Date: month(2023, time.January), Value: 2},
			},
			err: ErrNonMonotonic,
		},
		"descending": {
			s: Series{
				{Date: month(2023, time.February), Value: 1},
				{Date: month(2023, time.January), Value: 2},
			},
			err: ErrNonMonotonic,
		},
		"nan": {
			s:   Series{{Date: month(2023, time.January), Value: math.NaN()}},
			err: ErrNonFiniteValue,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			err := td.s.Validate()
			if td.err == nil {
				assert.Nil(t, err)
				return
			}
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestWithManualEntry(t *testing.T) {
	testData := map[string]struct {
		s        Series
		value    float64
		now      time.Time
		expected Series
	}{
		"appends current month": {
			s:     sampleSeries(),
			value: 23.5,
			now:   time.Date(2023, 5, 17, 13, 0, 0, 0, time.UTC),
			expected: append(sampleSeries(), Observation{
				Date: month(2023, time.May), Value: 23.5,
			}),
		},
		"existing month unchanged": {
			s:        sampleSeries(),
			value:    50,
			now:      time.Date(2023, 2, 28, 23, 0, 0, 0, time.UTC),
			expected: sampleSeries(),
		},
		"inserted in date order": {
			s:     sampleSeries(),
			value: 22.0,
			now:   time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC),
			expected: Series{
				{Date: month(2023, time.January), Value: 21.8},
				{Date: month(2023, time.February), Value: 21.9},
				{Date: month(2023, time.March), Value: 22.0},
				{Date: month(2023, time.April), Value: 22.2},
			},
		},
		"clamped high": {
			s:        Series{},
			value:    150,
			now:      month(2024, time.June),
			expected: Series{{Date: month(2024, time.June), Value: 100}},
		},
		"clamped low": {
			s:        Series{},
			value:    -3,
			now:      month(2024, time.June),
			expected: Series{{Date: month(2024, time.June), Value: 0}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.s.WithManualEntry(td.value, td.now)
			assert.Equal(t, td.expected, res)
			assert.Nil(t, res.Validate())
		})
	}
}

func TestWithManualEntryIdempotent(t *testing.T) {
	s := sampleSeries()
	now := time.Date(2023, 6, 10, 0, 0, 0, 0, time.UTC)

	first := s.WithManualEntry(24.0, now)
	second := first.WithManualEntry(30.0, now.Add(24*time.Hour))
	assert.Len(t, first, len(s)+1)
	assert.Equal(t, first, second)

	// input is never mutated
	assert.Equal(t, sampleSeries(), s)
}

func TestTail(t *testing.T) {
	s := sampleSeries()
	assert.Equal(t, Series{}, s.Tail(0))
	assert.Equal(t, s[2:], s.Tail(1))
	assert.Equal(t, s, s.Tail(12))

	tail := s.Tail(2)
	tail[0].Value = 99
	assert.Equal(t, 21.9, s[1].Value)
}

func TestTimesValues(t *testing.T) {
	s := sampleSeries()
	assert.Equal(t, []time.Time{month(2023, time.January), month(2023, time.February), month(2023, time.April)}, s.Times())
	assert.Equal(t, []float64{21.8, 21.9, 22.2}, s.Values())

	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 22.2, last.Value)

	_, ok = Series{}.Last()
	assert.False(t, ok)
}

func TestHash(t *testing.T) {
	s := sampleSeries()
	assert.Equal(t, s.Hash(), sampleSeries().Hash())

	changed := sampleSeries()
	changed[1].Value = 21.95
	assert.NotEqual(t, s.Hash(), changed.Hash())

	assert.NotEqual(t, s.Hash(), s.WithManualEntry(1, month(2023, time.May)).Hash())
}
