package forecaster

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/forecast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		expected []string
	}{
		"no input": {
			expected: []string{
				"Series:\n",
				"Uncertainty:\n",
				"  Interval Width: 0.00 (z=0.000)\n",
				"  Residual StdDev: 0.000    Step StdDev: 0.000    Step: 0s\n",
			},
		},
		"basic input": {
			m: Model{
				Series: forecast.Model{
					TrainStartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
					TrainEndTime:   time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
					Scores: &forecast.Scores{
						MAPE: 0.1234,
						MSE:  1.2345,
						R2:   0.0123,
					},
				},
				Uncertainty: UncertaintyModel{
					IntervalWidth: 0.8,
					Z:             1.2816,
					Sigma:         0.25,
					StepStdDev:    0.5,
					Interval:      730 * time.Hour,
				},
			},
			expected: []string{
				"Series:\n",
				"Training Window: 2020-01-01 to 2023-02-01",
				"Uncertainty:\n",
				"  Interval Width: 0.80 (z=1.282)\n",
				"  Residual StdDev: 0.250    Step StdDev: 0.500    Step: 730h0m0s\n",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, td.m.TablePrint(&buf))
			out := buf.String()
			for _, exp := range td.expected {
				assert.Contains(t, out, exp)
			}
		})
	}
}
