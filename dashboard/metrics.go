package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/aouyang1/go-inflation-forecaster/worldbank"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "inflation_dashboard"

const (
	FetchResultSuccess    = "success"
	FetchResultNetwork    = "network_error"
	FetchResultDataFormat = "data_error"
	FetchResultOther      = "error"
)

// CacheStats reports the hit and miss counts of a series cache
type CacheStats interface {
	GetMetrics() (hits, misses int64)
}

// Metrics holds the dashboard collectors on their own registry so several servers can run in
// one process
type Metrics struct {
	registry *prometheus.Registry

	FetchTotal        *prometheus.CounterVec
	RecomputeDuration prometheus.Histogram
	FitErrors         prometheus.Counter
	WebsocketSessions prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "source_fetch_total",
				Help:      "Number of fetches against the upstream series source by result",
			},
			[]string{"result"},
		),
		RecomputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "recompute_duration_seconds",
				Help:      "Latency of a full fetch, fit and predict recompute",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
			},
		),
		FitErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "fit_errors_total",
				Help:      "Number of forecast fits that failed",
			},
		),
		WebsocketSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "websocket_sessions",
				Help:      "Number of open websocket sessions",
			},
		),
	}
	m.registry.MustRegister(
		m.FetchTotal,
		m.RecomputeDuration,
		m.FitErrors,
		m.WebsocketSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RegisterCache exposes the hit and miss counts of the series cache
func (m *Metrics) RegisterCache(c CacheStats) {
	if m == nil || c == nil {
		return
	}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "series_cache_hits_total",
				Help:      "Number of series fetches served from the cache",
			},
			func() float64 {
				hits, _ := c.GetMetrics()
				return float64(hits)
			},
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "series_cache_misses_total",
				Help:      "Number of series fetches that went to the source",
			},
			func() float64 {
				_, misses := c.GetMetrics()
				return float64(misses)
			},
		),
	)
}

// Registry returns the registry the collectors are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentSource counts every fetch against src by result
func (m *Metrics) InstrumentSource(src worldbank.Source) worldbank.Source {
	if m == nil {
		return src
	}
	return &instrumentedSource{src: src, m: m}
}

type instrumentedSource struct {
	src worldbank.Source
	m   *Metrics
}

func (s *instrumentedSource) Fetch(ctx context.Context) (observation.Series, error) {
	series, err := s.src.Fetch(ctx)
	s.m.FetchTotal.WithLabelValues(fetchResult(err)).Inc()
	return series, err
}

func fetchResult(err error) string {
	switch {
	case err == nil:
		return FetchResultSuccess
	case errors.Is(err, worldbank.ErrNetwork):
		return FetchResultNetwork
	case errors.Is(err, worldbank.ErrDataFormat):
		return FetchResultDataFormat
	}
	return FetchResultOther
}

func (m *Metrics) observeRecompute(seconds float64) {
	if m == nil {
		return
	}
	m.RecomputeDuration.Observe(seconds)
}

func (m *Metrics) incFitErrors() {
	if m == nil {
		return
	}
	m.FitErrors.Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.WebsocketSessions.Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.WebsocketSessions.Dec()
}
