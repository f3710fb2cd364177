package options

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
)

func TestSeasonalityTablePrint(t *testing.T) {
	testData := map[string]struct {
		opt          *SeasonalityOptions
		prefix       string
		indent       string
		indentGrowth int
		expected     string
	}{
		"no configs": {
			opt: &SeasonalityOptions{},
			expected: `Seasonality: None
`,
		},
		"no configs with prefix and indent": {
			opt:          &SeasonalityOptions{},
			prefix:       "  ",
			indent:       "--",
			indentGrowth: 1,
			expected: `  --Seasonality: None
`,
		},
		"config with prefix and indent": {
			opt: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "s0", Period: 12 * time.Hour, Orders: 1},
				},
			},
			prefix:       "  ",
			indent:       "  ",
			indentGrowth: 1,
			expected: `    Seasonality:
       Name  Period Orders
         s0 12h0m0s      1
`,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			td.opt.TablePrint(&buf, td.prefix, td.indent, td.indentGrowth)
			assert.Equal(t, td.expected, buf.String())
		})
	}
}

func TestRemoveDuplicates(t *testing.T) {
	testData := map[string]struct {
		opt      *SeasonalityOptions
		expected *SeasonalityOptions
	}{
		"no configs": {
			opt:      &SeasonalityOptions{},
			expected: &SeasonalityOptions{},
		},
		"period ordering": {
			opt: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "yearly", Orders: 2, Period: YearDuration},
					{Name: "quarterly", Orders: 2, Period: YearDuration / 4},
				},
			},
			expected: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "quarterly", Orders: 2, Period: YearDuration / 4},
					{Name: "yearly", Orders: 2, Period: YearDuration},
				},
			},
		},
		"keeps most orders per period": {
			opt: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "bar", Orders: 2, Period: YearDuration},
					{Name: "foo", Orders: 1, Period: YearDuration},
					{Name: "baz", Orders: 3, Period: YearDuration},
				},
			},
			expected: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "baz", Orders: 3, Period: YearDuration},
				},
			},
		},
		"drops invalid": {
			opt: &SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{
					{Name: "", Orders: 2, Period: YearDuration},
					{Name: "zero", Orders: 0, Period: YearDuration},
					{Name: "neg", Orders: 1, Period: -time.Hour},
				},
			},
			expected: &SeasonalityOptions{},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			td.opt.removeDuplicates()
			assert.Equal(t, td.expected, td.opt)
		})
	}
}

func TestSeasonalityResolve(t *testing.T) {
	start := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

	annual := make([]time.Time, 0, 20)
	for i := 0; i < 20; i++ {
		annual = append(annual, time.Date(2000+i, 1, 1, 0, 0, 0, 0, time.UTC))
	}

	testData := map[string]struct {
		opt      SeasonalityOptions
		t        []time.Time
		expected []SeasonalityConfig
	}{
		"monthly with enough history caps orders": {
			opt:      NewDefaultSeasonalityOptions(),
			t:        timedataset.GenerateMonthlyT(48, start),
			expected: []SeasonalityConfig{NewYearlySeasonalityConfig(5)},
		},
		"monthly with short history": {
			opt: NewDefaultSeasonalityOptions(),
			t:   timedataset.GenerateMonthlyT(18, start),
		},
		"annual data is too coarse": {
			opt: NewDefaultSeasonalityOptions(),
			t:   annual,
		},
		"single point": {
			opt: NewDefaultSeasonalityOptions(),
			t:   annual[:1],
		},
		"manual configs are kept": {
			opt: SeasonalityOptions{
				SeasonalityConfigs: []SeasonalityConfig{NewYearlySeasonalityConfig(3)},
			},
			t:        annual[:2],
			expected: []SeasonalityConfig{NewYearlySeasonalityConfig(3)},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res := td.opt.Resolve(td.t)
			assert.Equal(t, td.expected, res)
		})
	}
}
