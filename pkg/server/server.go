package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/teamstore/internal/errors"
	"github.com/vango-dev/teamstore/pkg/middleware"
	"github.com/vango-dev/teamstore/pkg/selection"
)

// Route paths.
const (
	SelectedTeamPath = "/selected-team"
	WatchPath        = "/selected-team/watch"
	HealthPath       = "/healthz"
	MetricsPath      = "/metrics"
)

// Server serves one selection over HTTP.
type Server struct {
	sel      *selection.Selection[any]
	config   *Config
	upgrader websocket.Upgrader
	logger   *slog.Logger

	metrics     *middleware.Metrics
	gatherer    prometheus.Gatherer
	tracing     bool
	tracingOpts []middleware.OTelOption

	handlerOnce sync.Once
	handler     http.Handler

	// mu guards httpServer and closed; watchers.Add happens under mu so
	// it never races with the Wait in Shutdown.
	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
	done       chan struct{}
	watchers   sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records request and watcher metrics into m and serves
// gatherer at /metrics. A nil gatherer records without exposing.
func WithMetrics(m *middleware.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// WithTracing starts an OpenTelemetry span for every request.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.tracing = true
		s.tracingOpts = opts
	}
}

// New creates a Server for sel. A nil config uses DefaultConfig.
func New(sel *selection.Selection[any], config *Config, opts ...Option) *Server {
	config = config.withDefaults()
	s := &Server{
		sel:    sel,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Config returns the effective configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Handler returns the HTTP handler with all routes mounted. It can be
// used directly with httptest or another http.Server.
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		s.handler = s.routes()
	})
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	if s.tracing {
		opts := append([]middleware.OTelOption{
			middleware.WithRequestFilter(func(r *http.Request) bool {
				return r.URL.Path != HealthPath && r.URL.Path != MetricsPath
			}),
		}, s.tracingOpts...)
		r.Use(middleware.Tracing(opts...))
	}

	r.Get(SelectedTeamPath, s.handleGet)
	r.Put(SelectedTeamPath, s.handlePut)
	r.Delete(SelectedTeamPath, s.handleDelete)
	r.Get(WatchPath, s.handleWatch)
	r.Get(HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return errors.New("E303").Wrap(err).
			WithSuggestion(fmt.Sprintf("Check that %s is free, or pass --addr", s.config.Address))
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = ln.Close()
		return http.ErrServerClosed
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return errors.New("E303").Wrap(err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown stops accepting requests, closes every watch stream and waits
// for in-flight work up to the configured ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return errors.New("E303").Wrap(err)
		}
	}

	// Hijacked connections are not tracked by http.Server.
	waited := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		s.logger.Error("shutdown error", "error", ctx.Err())
		return errors.New("E303").Wrap(ctx.Err())
	}

	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	data, err := json.Marshal(s.sel.Get())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, errors.New("E204").Wrap(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, errors.New("E301").
				WithDetail(fmt.Sprintf("The request body exceeds %d bytes.", s.config.MaxBodyBytes)))
			return
		}
		s.writeError(w, http.StatusBadRequest, errors.New("E301").Wrap(err))
		return
	}

	value, err := decodeValue(data)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("E301").Wrap(err))
		return
	}

	if err := s.sel.SetContext(r.Context(), value); err != nil {
		s.logger.Error("set selection failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sel.SetContext(r.Context(), nil); err != nil {
		s.logger.Error("clear selection failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError writes err as a JSON error document.
func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	e := errors.FromError(err, "E303")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, e.FormatJSON())
}

// decodeValue parses exactly one JSON value. Numbers are kept as
// json.Number so they round-trip without float rounding.
func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if err == io.EOF {
			return nil, stderrors.New("empty body")
		}
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, stderrors.New("unexpected data after JSON value")
	}
	return v, nil
}
