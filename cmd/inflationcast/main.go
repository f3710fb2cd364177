// Command inflationcast serves the Nigeria inflation forecasting dashboard or, with -once,
// prints a single forecast and writes it to a csv or xlsx file. With -once the fit can also be
// saved as an html plot (-plot) or a json model (-model), and -from-model forecasts from a
// saved model without fetching.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	forecaster "github.com/aouyang1/go-inflation-forecaster"
	"github.com/aouyang1/go-inflation-forecaster/config"
	"github.com/aouyang1/go-inflation-forecaster/dashboard"
	"github.com/aouyang1/go-inflation-forecaster/worldbank"
	"github.com/goccy/go-json"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inflationcast", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		addr       string
		once       bool
		horizon    int
		out        string
		plotPath   string
		modelPath  string
		fromModel  string
	)
	fs.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	fs.StringVar(&addr, "addr", "", "Address to serve the dashboard on (overrides config)")
	fs.BoolVar(&once, "once", false, "Compute one forecast, print it and write it to -out instead of serving")
	fs.IntVar(&horizon, "horizon", 0, "Months to forecast, between 3 and 36 (defaults to config)")
	fs.StringVar(&out, "out", dashboard.CSVFilename, "Export file for -once, .csv or .xlsx")
	fs.StringVar(&plotPath, "plot", "", "Write an html plot of the fit and its components for -once")
	fs.StringVar(&modelPath, "model", "", "Write the fit model as json for -once")
	fs.StringVar(&fromModel, "from-model", "", "Forecast from a json model written by -model instead of fetching")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("unable to load configuration, %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := cfg.Logging.NewLogger(stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	metrics := dashboard.NewMetrics()
	client := worldbank.NewClient(
		worldbank.WithBaseURL(cfg.Source.BaseURL),
		worldbank.WithCountry(cfg.Source.Country),
		worldbank.WithIndicator(cfg.Source.Indicator),
		worldbank.WithPerPage(cfg.Source.PerPage),
		worldbank.WithTimeout(cfg.Source.Timeout),
	)
	cache := worldbank.NewCachedSource(metrics.InstrumentSource(client), cfg.Source.CacheTTL)
	metrics.RegisterCache(cache)

	pipeline := dashboard.NewPipeline(cache,
		dashboard.WithForecastOptions(forecastOptions(cfg)),
		dashboard.WithPipelineMetrics(metrics),
	)

	defaults := dashboard.Inputs{Horizon: cfg.Forecast.DefaultHorizon}
	if horizon != 0 {
		defaults.Horizon = horizon
	}
	defaults = defaults.Normalise()

	if fromModel != "" {
		return runFromModel(fromModel, defaults, out, stdout)
	}
	if once {
		return runOnce(ctx, pipeline, defaults, onceOutputs{table: out, plot: plotPath, model: modelPath}, stdout)
	}

	srv := dashboard.NewServer(pipeline,
		dashboard.WithCache(cache),
		dashboard.WithMetrics(metrics),
		dashboard.WithLogger(logger),
		dashboard.WithDefaultInputs(defaults),
		dashboard.WithShowBounds(cfg.Forecast.ShowBounds),
		dashboard.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
	)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

func forecastOptions(cfg *config.Config) *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	opt.UncertaintyOptions.IntervalWidth = cfg.Forecast.IntervalWidth
	opt.Frequency = cfg.FrequencyValue()
	if cfg.Forecast.OutlierPasses > 0 {
		opt.OutlierOptions = forecaster.NewOutlierOptions()
		opt.OutlierOptions.NumPasses = cfg.Forecast.OutlierPasses
	}
	return opt
}

type onceOutputs struct {
	table string
	plot  string
	model string
}

func runOnce(ctx context.Context, p *dashboard.Pipeline, in dashboard.Inputs, outs onceOutputs, stdout io.Writer) error {
	v, err := p.Recompute(ctx, in)
	if err != nil {
		return err
	}
	if err := writeTable(v.Table, outs.table, stdout); err != nil {
		return err
	}

	if outs.plot != "" {
		err := createFile(outs.plot, func(w io.Writer) error {
			return v.Forecaster.PlotFit(w, &forecaster.PlotOpts{HorizonCnt: in.Horizon})
		})
		if err != nil {
			return fmt.Errorf("unable to plot fit, %w", err)
		}
		slog.Info("wrote fit plot", "path", outs.plot)
	}

	if outs.model != "" {
		m, err := v.Forecaster.Model()
		if err != nil {
			return err
		}
		err = createFile(outs.model, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		})
		if err != nil {
			return fmt.Errorf("unable to save model, %w", err)
		}
		slog.Info("wrote fit model", "path", outs.model)
	}
	return nil
}

func runFromModel(path string, in dashboard.Inputs, out string, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read model, %w", err)
	}
	var m forecaster.Model
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("unable to decode model %s, %w", path, err)
	}
	f, err := forecaster.NewFromModel(m)
	if err != nil {
		return err
	}
	grid, err := f.Grid(in.Horizon)
	if err != nil {
		return err
	}
	res, err := f.Predict(grid)
	if err != nil {
		return err
	}
	return writeTable(dashboard.NewTable(res, in.Horizon), out, stdout)
}

func writeTable(t dashboard.Table, out string, stdout io.Writer) error {
	if _, err := fmt.Fprintf(stdout, "%s\n\n", dashboard.PageTitle); err != nil {
		return err
	}
	if err := t.TablePrint(stdout); err != nil {
		return err
	}
	if out == "" {
		return nil
	}

	err := createFile(out, func(w io.Writer) error {
		if strings.ToLower(filepath.Ext(out)) == ".xlsx" {
			return t.WriteXLSX(w)
		}
		return t.WriteCSV(w)
	})
	if err != nil {
		return fmt.Errorf("unable to export forecast, %w", err)
	}
	slog.Info("wrote forecast", "path", out, "rows", len(t))
	return nil
}

func createFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s, %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}
