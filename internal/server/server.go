package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nipafx/LibFX-sub001/internal/errors"
	"github.com/nipafx/LibFX-sub001/internal/scenario"
	"github.com/nipafx/LibFX-sub001/pkg/nesting"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address.
	Addr string

	// Source is the scenario directory or s3:// prefix.
	Source string

	// WriteTimeout bounds each WebSocket write.
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the defaults used for zero fields.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Source:          "scenarios",
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithObserver sets the observer attached to every scenario run.
func WithObserver(observer nesting.Observer) Option {
	return func(s *Server) {
		s.observer = observer
	}
}

// WithGatherer sets what /metrics serves. Defaults to a fresh registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithRunID replaces the run ID generator, for tests.
func WithRunID(fn func() string) Option {
	return func(s *Server) {
		s.runID = fn
	}
}

// Server serves scenarios.
type Server struct {
	config   Config
	loader   *scenario.Loader
	logger   *slog.Logger
	observer nesting.Observer
	gatherer prometheus.Gatherer
	runID    func() string

	router     chi.Router
	upgrader   websocket.Upgrader
	httpServer *http.Server
}

// New returns a Server reading scenarios through loader.
func New(config Config, loader *scenario.Loader, opts ...Option) *Server {
	defaults := DefaultConfig()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.Source == "" {
		config.Source = defaults.Source
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}

	s := &Server{
		config: config,
		loader: loader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.NewRegistry()
	}

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/scenarios", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/{name}/run", s.handleRun)
		r.Get("/{name}/watch", s.handleWatch)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr, "source", s.config.Source)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	s.logger.Info("server shutdown complete")
	return nil
}

func (s *Server) runner(opts ...scenario.RunnerOption) *scenario.Runner {
	base := []scenario.RunnerOption{
		scenario.WithLogger(s.logger),
		scenario.WithObserver(s.observer),
	}
	if s.runID != nil {
		base = append(base, scenario.WithRunID(s.runID))
	}
	return scenario.NewRunner(append(base, opts...)...)
}

// find resolves a scenario name to a source under the configured source.
func (s *Server) find(ctx context.Context, name string) (*scenario.Scenario, error) {
	sources, err := s.loader.List(ctx, s.config.Source)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if scenario.ScenarioName(src) == name {
			return s.loader.Load(ctx, src)
		}
	}
	return nil, errors.New("S001").WithDetail("no scenario named " + name + " under " + s.config.Source)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var e *errors.Error
	if !errors.As(err, &e) {
		e = errors.Newf(errors.CategoryScenario, "%v", err)
	}
	status := statusOf(e.Code)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(e.FormatJSON()))
}

func statusOf(code string) int {
	switch code {
	case "S001":
		return http.StatusNotFound
	case "S002", "S003", "S004", "S005", "S007":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
