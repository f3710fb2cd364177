package worldbank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	testData := map[string]struct {
		input    string
		expected time.Time
		err      error
	}{
		"year":       {input: "2023", expected: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		"month":      {input: "2023M07", expected: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		"year month": {input: "2023-11", expected: time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC)},
		"quarter":    {input: "2023Q3", expected: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		"day":        {input: "2023-02-14", expected: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		"week":       {input: "2023W05", err: ErrDataFormat},
		"month 13":   {input: "2023M13", err: ErrDataFormat},
		"quarter 5":  {input: "2023Q5", err: ErrDataFormat},
		"bad day":    {input: "2023-02-30", err: ErrDataFormat},
		"empty":      {input: "", err: ErrDataFormat},
		"garbage":    {input: "last year", err: ErrDataFormat},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := ParseDate(td.input)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected, res)
		})
	}
}
