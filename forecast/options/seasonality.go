package options

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/forecast/util"
	"github.com/aouyang1/go-inflation-forecaster/timedataset"
)

// YearDuration is the average length of a calendar year
const YearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

// Seasonality options configures the number of seasonality components to fit for. With Auto
// set, a config is only fit if the training data spans at least two periods and is sampled at
// least twice per period, and its orders are capped below the sampling limit.
type SeasonalityOptions struct {
	Auto               bool                `json:"auto"`
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

func (s SeasonalityOptions) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	p := util.NewPrinter(w, prefix, indent)
	s.print(p, indentGrowth)
	return p.Err()
}

func (s SeasonalityOptions) print(p *util.Printer, level int) {
	rows := make([][]string, 0, len(s.SeasonalityConfigs))
	for _, cfg := range s.SeasonalityConfigs {
		rows = append(rows, []string{cfg.Name, cfg.Period.String(), strconv.Itoa(cfg.Orders)})
	}
	printSection(p, level, "Seasonality", []string{"Name", "Period", "Orders"}, rows)
}

// NewDefaultSeasonalityOptions generates a default seasonality config with a yearly component
// that is only fit when the data supports it
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		Auto: true,
		SeasonalityConfigs: []SeasonalityConfig{
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
		},
	}
}

// Resolve returns the seasonality configs that can be fit on the training times. Without Auto
// all valid configs are returned.
func (s *SeasonalityOptions) Resolve(t []time.Time) []SeasonalityConfig {
	s.removeDuplicates()
	if !s.Auto {
		return append([]SeasonalityConfig(nil), s.SeasonalityConfigs...)
	}

	tSlice := timedataset.TimeSlice(t)
	interval, err := tSlice.MedianInterval()
	if err != nil {
		return nil
	}
	span := tSlice.Span()

	var active []SeasonalityConfig
	for _, seasCfg := range s.SeasonalityConfigs {
		if span < 2*seasCfg.Period {
			slog.Debug("skipping seasonality, history too short", "name", seasCfg.Name, "span", span, "period", seasCfg.Period)
			continue
		}
		maxOrders := int(math.Ceil(float64(seasCfg.Period)/float64(2*interval))) - 1
		if maxOrders < 1 {
			slog.Debug("skipping seasonality, sampled too coarsely", "name", seasCfg.Name, "interval", interval, "period", seasCfg.Period)
			continue
		}
		if seasCfg.Orders > maxOrders {
			seasCfg.Orders = maxOrders
		}
		active = append(active, seasCfg)
	}
	return active
}

// removeDuplicates drops invalid configs and keeps the config with the most orders per period
func (s *SeasonalityOptions) removeDuplicates() {
	optSeasConfigs := s.SeasonalityConfigs
	sort.Slice(optSeasConfigs, func(i, j int) bool {
		if optSeasConfigs[i].Period != optSeasConfigs[j].Period {
			return optSeasConfigs[i].Period < optSeasConfigs[j].Period
		}
		if optSeasConfigs[i].Orders != optSeasConfigs[j].Orders {
			return optSeasConfigs[i].Orders > optSeasConfigs[j].Orders
		}
		return optSeasConfigs[i].Name < optSeasConfigs[j].Name
	})

	validated := make([]SeasonalityConfig, 0, len(optSeasConfigs))
	var lastValidPeriod time.Duration
	for _, seasCfg := range optSeasConfigs {
		if seasCfg.Period > 0 && seasCfg.Period > lastValidPeriod && seasCfg.Name != "" && seasCfg.Orders > 0 {
			validated = append(validated, seasCfg)
			lastValidPeriod = seasCfg.Period
		}
	}
	if len(validated) == 0 {
		validated = nil
	}
	s.SeasonalityConfigs = validated
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a yearly period with 3
// orders will create 6 Fourier series for the sine/cosine components of order 1, 2, 3 where
// order 1 has a period of 1 year and order 2 a period of 6 months.
type SeasonalityConfig struct {
	Name   string        `json:"name"`
	Orders int           `json:"orders"`
	Period time.Duration `json:"period"`
}

// NewSeasonalityConfig creates a new seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
	}
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, YearDuration, orders)
}
