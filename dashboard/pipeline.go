// Package dashboard serves the inflation forecast: a single recompute pipeline from the series
// source through the forecaster, rendered as an echarts chart, tables, exports, a JSON api and
// a websocket for live updates.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	forecaster "github.com/aouyang1/go-inflation-forecaster"
	"github.com/aouyang1/go-inflation-forecaster/clock"
	"github.com/aouyang1/go-inflation-forecaster/forecast"
	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/worldbank"
)

const (
	// RawTailRows is the number of most recent historical rows shown as raw data
	RawTailRows = 12

	defaultMaxMemo = 64
)

// View is everything a single render needs
type View struct {
	Inputs        Inputs              `json:"inputs"`
	History       observation.Series  `json:"history"`
	RawTail       observation.Series  `json:"raw_tail"`
	ManualApplied bool                `json:"manual_applied"`
	Results       *forecaster.Results `json:"results"`
	Table         Table               `json:"table"`
	Scores        forecast.Scores     `json:"scores"`
	ModelEq       string              `json:"model_eq"`
	FetchedAt     time.Time           `json:"fetched_at"`
	ComputedAt    time.Time           `json:"computed_at"`

	// Forecaster is the fit behind Results. It is shared with the memo and must not be refit.
	Forecaster *forecaster.Forecaster `json:"-"`
}

type memoKey struct {
	hash    uint64
	horizon int
}

type memoEntry struct {
	fc      *forecaster.Forecaster
	results *forecaster.Results
	scores  forecast.Scores
	modelEq string
}

type fetchTimer interface {
	FetchedAt() (time.Time, bool)
}

// Pipeline recomputes a View from inputs. Fits are memoised by the series snapshot and the
// horizon so repeated renders with unchanged inputs skip the fit.
type Pipeline struct {
	source  worldbank.Source
	opt     *forecaster.Options
	clock   clock.Clock
	metrics *Metrics
	maxMemo int

	mu   sync.Mutex
	memo map[memoKey]memoEntry
}

// PipelineOption allows customizing the pipeline
type PipelineOption func(*Pipeline)

// WithForecastOptions sets the forecaster options used for every fit
func WithForecastOptions(opt *forecaster.Options) PipelineOption {
	return func(p *Pipeline) {
		p.opt = opt
	}
}

// WithPipelineClock sets the clock that decides the current month of a manual entry
func WithPipelineClock(c clock.Clock) PipelineOption {
	return func(p *Pipeline) {
		p.clock = c
	}
}

// WithPipelineMetrics records recompute latency and fit errors
func WithPipelineMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithMaxMemo bounds the number of memoised fits. The memo is cleared once it is full.
func WithMaxMemo(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxMemo = n
		}
	}
}

func NewPipeline(src worldbank.Source, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:  src,
		clock:   clock.RealClock{},
		maxMemo: defaultMaxMemo,
		memo:    make(map[memoKey]memoEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recompute fetches the series, applies the manual entry, fits and predicts. A failure at any
// stage aborts the render and is returned as is.
func (p *Pipeline) Recompute(ctx context.Context, in Inputs) (*View, error) {
	start := p.clock.Now()
	defer func() {
		p.metrics.observeRecompute(p.clock.Since(start).Seconds())
	}()

	in = in.Normalise()
	series, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch series, %w", err)
	}

	view := &View{Inputs: in, ComputedAt: start}
	if in.ManualEnabled {
		before := series.Len()
		series = series.WithManualEntry(in.ManualValue, p.clock.Now())
		view.ManualApplied = series.Len() > before
	}
	view.History = series
	view.RawTail = series.Tail(RawTailRows)
	if ft, ok := p.source.(fetchTimer); ok {
		view.FetchedAt, _ = ft.FetchedAt()
	}

	entry, err := p.fit(series, in.Horizon)
	if err != nil {
		return nil, err
	}
	view.Results = entry.results
	view.Scores = entry.scores
	view.ModelEq = entry.modelEq
	view.Forecaster = entry.fc
	view.Table = NewTable(entry.results, in.Horizon)
	return view, nil
}

func (p *Pipeline) fit(series observation.Series, horizon int) (memoEntry, error) {
	key := memoKey{hash: series.Hash(), horizon: horizon}

	p.mu.Lock()
	entry, ok := p.memo[key]
	p.mu.Unlock()
	if ok {
		slog.Debug("forecast memo hit", "horizon", horizon)
		return entry, nil
	}

	f, res, err := forecaster.ForecastSeries(series, horizon, p.opt)
	if err != nil {
		p.metrics.incFitErrors()
		return memoEntry{}, err
	}
	entry = memoEntry{fc: f, results: res, scores: f.Scores()}
	if eq, err := f.SeriesModelEq(); err == nil {
		entry.modelEq = eq
	}

	p.mu.Lock()
	if len(p.memo) >= p.maxMemo {
		clear(p.memo)
	}
	p.memo[key] = entry
	p.mu.Unlock()
	return entry, nil
}

// MemoLen returns the number of memoised fits
func (p *Pipeline) MemoLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.memo)
}
