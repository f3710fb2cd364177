package forecast

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/feature"
	"github.com/aouyang1/go-inflation-forecaster/forecast/options"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		prefix   string
		indent   string
		contains []string
	}{
		"no input": {
			contains: []string{
				"Forecast:\n",
				"Training Window: 0001-01-01 to 0001-01-01\n",
				"Weights:\n",
			},
		},
		"with prefix and indent": {
			m: Model{
				TrainStartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				TrainEndTime:   time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
				Scores: &Scores{
					MAPE: 0.1234,
					MSE:  1.2345,
					R2:   0.0123,
				},
			},
			prefix: "--",
			indent: "**",
			contains: []string{
				"--Forecast:\n",
				"--**Training Window: 2020-01-01 to 2023-12-01\n",
				"--Scores:\n",
				"--**MAPE: 0.123    MSE: 1.234    R2: 0.012\n",
				"--Weights:\n",
			},
		},
		"with options and weights": {
			m: Model{
				Options: &options.Options{
					GrowthType:     feature.GrowthLinear,
					Regularization: 0.01,
					ChangepointOptions: options.ChangepointOptions{
						Changepoints: []options.Changepoint{
							options.NewChangepoint("c0", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)),
						},
					},
					SeasonalityOptions: options.SeasonalityOptions{
						SeasonalityConfigs: []options.SeasonalityConfig{
							options.NewYearlySeasonalityConfig(5),
						},
					},
				},
				Weights: Weights{
					Coef: []FeatureWeight{
						NewFeatureWeight(feature.Intercept(), 12.5),
						NewFeatureWeight(feature.NewChangepoint("c0", feature.ChangepointCompSlope), 0),
					},
				},
			},
			contains: []string{
				"Growth: linear\n",
				"Seasonality:\n",
				"Changepoints:\n",
				"2021-06-01",
				`{"name":"intercept"}`,
				"12.500",
				"...",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, td.m.TablePrint(&buf, td.prefix, td.indent))
			out := buf.String()
			assert.True(t, strings.HasPrefix(out, td.prefix+"Forecast:\n"))
			for _, c := range td.contains {
				assert.Contains(t, out, c)
			}
		})
	}
}

func TestFeatureWeightToFeature(t *testing.T) {
	testData := map[string]struct {
		fw       *FeatureWeight
		expected feature.Feature
		err      error
	}{
		"nil": {
			err: ErrUnknownFeatureType,
		},
		"unknown type": {
			fw:  &FeatureWeight{Type: "event"},
			err: ErrUnknownFeatureType,
		},
		"growth": {
			fw: &FeatureWeight{
				Type:   feature.FeatureTypeGrowth,
				Labels: map[string]string{"name": "linear"},
			},
			expected: feature.Linear(),
		},
		"changepoint": {
			fw: &FeatureWeight{
				Type:   feature.FeatureTypeChangepoint,
				Labels: map[string]string{"name": "auto_01", "changepoint_component": "slope"},
			},
			expected: feature.NewChangepoint("auto_01", feature.ChangepointCompSlope),
		},
		"seasonality": {
			fw: &FeatureWeight{
				Type:   feature.FeatureTypeSeasonality,
				Labels: map[string]string{"name": "epoch_yearly", "fourier_component": "cos", "order": "3"},
			},
			expected: feature.NewSeasonality("epoch_yearly", feature.FourierCompCos, 3),
		},
		"time": {
			fw: &FeatureWeight{
				Type:   feature.FeatureTypeTime,
				Labels: map[string]string{"name": "epoch"},
			},
			expected: feature.NewTime("epoch"),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.fw.ToFeature()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.expected.String(), res.String())
			assert.Equal(t, td.expected.Type(), res.Type())
		})
	}
}

func TestModelJSON(t *testing.T) {
	m := Model{
		TrainStartTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TrainEndTime:   time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		Options:        options.NewDefaultOptions(),
		Scores:         &Scores{MSE: 0.5, MAPE: 0.01, R2: 0.9},
		Weights: Weights{
			Coef: []FeatureWeight{
				NewFeatureWeight(feature.Intercept(), 12.5),
				NewFeatureWeight(feature.Linear(), 3.25),
			},
		},
	}

	out, err := json.Marshal(m)
	require.Nil(t, err)

	var res Model
	require.Nil(t, json.Unmarshal(out, &res))
	assert.Equal(t, m.TrainStartTime, res.TrainStartTime)
	assert.Equal(t, m.TrainEndTime, res.TrainEndTime)
	assert.Equal(t, m.Scores, res.Scores)
	assert.Equal(t, m.Options.SeasonalityOptions, res.Options.SeasonalityOptions)
	assert.Equal(t, []float64{12.5, 3.25}, res.Weights.Coefficients())

	labels, err := res.Weights.FeatureLabels()
	require.Nil(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "growth_intercept", labels[0].String())
	assert.Equal(t, "growth_linear", labels[1].String())
}
