package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/worldbank"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const shutdownTimeout = 10 * time.Second

// Invalidator drops a cached series so the next recompute fetches it again
type Invalidator interface {
	Invalidate()
}

// Server is the http surface of the dashboard
type Server struct {
	pipeline   *Pipeline
	cache      Invalidator
	metrics    *Metrics
	logger     *slog.Logger
	defaults   Inputs
	showBounds bool

	readTimeout  time.Duration
	writeTimeout time.Duration

	upgrader websocket.Upgrader
	mu       sync.Mutex
	sessions map[string]*session
}

// ServerOption allows customizing the server
type ServerOption func(*Server)

// WithCache enables POST /api/refresh and websocket refresh messages
func WithCache(c Invalidator) ServerOption {
	return func(s *Server) {
		s.cache = c
	}
}

// WithMetrics serves the registry on /metrics and tracks websocket sessions
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultInputs sets the inputs used when a request does not set them
func WithDefaultInputs(in Inputs) ServerOption {
	return func(s *Server) {
		s.defaults = in.Normalise()
	}
}

// WithShowBounds draws the forecast bounds on the chart
func WithShowBounds(show bool) ServerOption {
	return func(s *Server) {
		s.showBounds = show
	}
}

func WithTimeouts(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

func NewServer(p *Pipeline, opts ...ServerOption) *Server {
	s := &Server{
		pipeline: p,
		logger:   slog.Default(),
		defaults: NewDefaultInputs(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped with request logging and panic recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /chart", s.handleChart)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /download/csv", s.handleCSV)
	mux.HandleFunc("GET /download/xlsx", s.handleXLSX)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return Chain(mux, Recover(s.logger), Logger(s.logger))
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dashboard listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("unable to shut down dashboard, %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusCode maps a recompute error to the http status shown to the user
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, worldbank.ErrNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) recompute(r *http.Request) (Inputs, *View, error) {
	in, err := ParseInputs(r.URL.Query(), s.defaults)
	if err != nil {
		return s.defaults, nil, err
	}
	v, err := s.pipeline.Recompute(r.Context(), in)
	if err != nil {
		s.logger.Warn("recompute failed", "path", r.URL.Path, "error", err.Error())
		return in, nil, err
	}
	return in, v, nil
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	in, v, err := s.recompute(r)

	var buf bytes.Buffer
	if rerr := RenderPage(&buf, in, v, err); rerr != nil {
		http.Error(w, rerr.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(StatusCode(err))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.recompute(r)
	if err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	var buf bytes.Buffer
	if err := RenderChart(&buf, v, s.showBounds); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.recompute(r)
	if err != nil {
		writeJSONError(w, StatusCode(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	_, v, err := s.recompute(r)
	if err != nil {
		writeJSONError(w, StatusCode(err), err)
		return
	}
	m, err := v.Forecaster.Model()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		writeJSONError(w, http.StatusNotImplemented, errors.New("no series cache configured"))
		return
	}
	s.cache.Invalidate()
	s.logger.Info("series cache invalidated")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, CSVFilename, CSVContentType, func(buf *bytes.Buffer, t Table) error {
		return t.WriteCSV(buf)
	})
}

func (s *Server) handleXLSX(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, XLSXFilename, XLSXContentType, func(buf *bytes.Buffer, t Table) error {
		return t.WriteXLSX(buf)
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, filename, contentType string, write func(*bytes.Buffer, Table) error) {
	_, v, err := s.recompute(r)
	if err != nil {
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, v.Table); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.SessionCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	out, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	out, _ := json.Marshal(map[string]any{
		"error":  err.Error(),
		"status": status,
	})
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}
