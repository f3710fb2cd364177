// Package config loads the dashboard configuration from a .env file, an optional YAML file
// and INFLATION_* environment variables, in that order of precedence from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/timedataset"
	"github.com/aouyang1/go-inflation-forecaster/worldbank"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "INFLATION_"
	DefaultEnvFile = ".env"

	MinHorizon     = 3
	MaxHorizon     = 36
	DefaultHorizon = 12

	DefaultIntervalWidth = 0.8
	DefaultAddr          = ":8080"
	MaxOutlierPasses     = 5
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete dashboard configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Source   SourceConfig   `yaml:"source"`
	Forecast ForecastConfig `yaml:"forecast"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// SourceConfig configures the World Bank fetch. A CacheTTL of 0 keeps the fetched series for
// the lifetime of the process.
type SourceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Country   string        `yaml:"country"`
	Indicator string        `yaml:"indicator"`
	PerPage   int           `yaml:"per_page"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type ForecastConfig struct {
	DefaultHorizon int     `yaml:"default_horizon"`
	IntervalWidth  float64 `yaml:"interval_width"`
	Frequency      string  `yaml:"frequency"`
	ShowBounds     bool    `yaml:"show_bounds"`

	// OutlierPasses refits with percentile outliers masked this many times. Zero disables it.
	OutlierPasses int `yaml:"outlier_passes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewDefaultConfig returns the configuration used when nothing is overridden
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         DefaultAddr,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Source: SourceConfig{
			BaseURL:   worldbank.DefaultBaseURL,
			Country:   worldbank.DefaultCountry,
			Indicator: worldbank.DefaultIndicator,
			PerPage:   worldbank.DefaultPerPage,
			Timeout:   worldbank.DefaultTimeout,
			CacheTTL:  worldbank.DefaultCacheTTL,
		},
		Forecast: ForecastConfig{
			DefaultHorizon: DefaultHorizon,
			IntervalWidth:  DefaultIntervalWidth,
			Frequency:      string(timedataset.MonthStart),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. The env file defaults to .env and is skipped if missing. An
// empty path skips the YAML file.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("unable to load env file %s, %w", f, err)
		}
	}

	cfg := NewDefaultConfig()
	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, out *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read config file, %w", err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("unable to parse config file %s, %v, %w", path, err, ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Source.BaseURL, "SOURCE_URL")
	setString(&c.Source.Country, "COUNTRY")
	setString(&c.Source.Indicator, "INDICATOR")
	setString(&c.Forecast.Frequency, "FREQUENCY")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	var errs []error
	errs = append(errs,
		setDuration(&c.Server.ReadTimeout, "READ_TIMEOUT"),
		setDuration(&c.Server.WriteTimeout, "WRITE_TIMEOUT"),
		setDuration(&c.Source.Timeout, "TIMEOUT"),
		setDuration(&c.Source.CacheTTL, "CACHE_TTL"),
		setInt(&c.Source.PerPage, "PER_PAGE"),
		setInt(&c.Forecast.DefaultHorizon, "DEFAULT_HORIZON"),
		setFloat(&c.Forecast.IntervalWidth, "INTERVAL_WIDTH"),
		setBool(&c.Forecast.ShowBounds, "SHOW_BOUNDS"),
		setInt(&c.Forecast.OutlierPasses, "OUTLIER_PASSES"),
	)
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s=%q, %w", EnvPrefix, key, v, ErrInvalidConfig)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s=%q, %w", EnvPrefix, key, v, ErrInvalidConfig)
	}
	*dst = i
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s=%q, %w", EnvPrefix, key, v, ErrInvalidConfig)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s=%q, %w", EnvPrefix, key, v, ErrInvalidConfig)
	}
	*dst = b
	return nil
}

// Validate checks the configuration bounds
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config, %w", ErrInvalidConfig)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is required, %w", ErrInvalidConfig)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive, %w", ErrInvalidConfig)
	}
	if c.Source.BaseURL == "" || c.Source.Country == "" || c.Source.Indicator == "" {
		return fmt.Errorf("source url, country and indicator are required, %w", ErrInvalidConfig)
	}
	if c.Source.PerPage <= 0 {
		return fmt.Errorf("per page must be positive, %w", ErrInvalidConfig)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive, %w", ErrInvalidConfig)
	}
	if c.Source.CacheTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative, %w", ErrInvalidConfig)
	}
	if c.Forecast.DefaultHorizon < MinHorizon || c.Forecast.DefaultHorizon > MaxHorizon {
		return fmt.Errorf("default horizon %d outside [%d, %d], %w",
			c.Forecast.DefaultHorizon, MinHorizon, MaxHorizon, ErrInvalidConfig)
	}
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		return fmt.Errorf("interval width %.3f outside (0, 1), %w", c.Forecast.IntervalWidth, ErrInvalidConfig)
	}
	if c.Forecast.OutlierPasses < 0 || c.Forecast.OutlierPasses > MaxOutlierPasses {
		return fmt.Errorf("outlier passes %d outside [0, %d], %w",
			c.Forecast.OutlierPasses, MaxOutlierPasses, ErrInvalidConfig)
	}
	if _, err := timedataset.ParseFrequency(c.Forecast.Frequency); err != nil {
		return fmt.Errorf("%v, %w", err, ErrInvalidConfig)
	}
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q, %w", c.Logging.Format, ErrInvalidConfig)
	}
	return nil
}

// FrequencyValue returns the parsed forecast frequency
func (c *Config) FrequencyValue() timedataset.Frequency {
	freq, err := timedataset.ParseFrequency(c.Forecast.Frequency)
	if err != nil {
		return timedataset.MonthStart
	}
	return freq
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q, %w", level, ErrInvalidConfig)
}

// NewLogger returns a text or json logger writing to w at the configured level
func (l LoggingConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(l.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
