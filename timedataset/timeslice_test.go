package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(year int, months ...time.Month) TimeSlice {
	t := make(TimeSlice, 0, len(months))
	for _, m := range months {
		t = append(t, time.Date(year, m, 1, 0, 0, 0, 0, time.UTC))
	}
	return t
}

func TestSpan(t *testing.T) {
	assert.Equal(t, time.Duration(0), TimeSlice(nil).Span())
	assert.Equal(t, 59*24*time.Hour, monthly(2023, time.January, time.March).Span())
}

func TestIntervals(t *testing.T) {
	assert.Nil(t, monthly(2023, time.January).Intervals())
	assert.Equal(t,
		[]time.Duration{31 * 24 * time.Hour, 28 * 24 * time.Hour},
		monthly(2023, time.January, time.February, time.March).Intervals(),
	)
}

func TestMedianInterval(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expected time.Duration
		err      error
	}{
		"too short": {
			tSlice: monthly(2023, time.January),
			err:    ErrCannotInferFreq,
		},
		"odd number of deltas": {
			// 31, 28, 31 days
			tSlice:   monthly(2023, time.January, time.February, time.March, time.April),
			expected: 31 * 24 * time.Hour,
		},
		"even number of deltas": {
			// 31, 28 days
			tSlice:   monthly(2023, time.January, time.February, time.March),
			expected: 59 * 12 * time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.tSlice.MedianInterval()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}
