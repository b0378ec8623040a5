package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplaylists/internal/services"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, metrics, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own several routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the patterns this handler serves, e.g. "GET /metrics"
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	Group(middleware ...Middleware) Router            // Group derives a router whose routes get extra middleware
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Opts configures a [Server].
type Opts struct {
	Config   shared.ServerConfig
	Store    *store.Store
	Provider services.VideoProvider
	Logger   *log.Logger
	// Registry collects HTTP metrics. Nil uses a fresh registry.
	Registry *prometheus.Registry
}

// Server is the JSON API server.
type Server struct {
	addr    string
	router  *BasicRouter
	api     *API
	logger  *log.Logger
	metrics bool
}

// New wires the API routes, session handling and middleware.
func New(opts Opts) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}

	sessions, err := NewSessionManager(opts.Config.SessionSecret, opts.Config.SessionTTL)
	if err != nil {
		return nil, err
	}

	logger := shared.WithLogger(opts.Logger, "component", "http")
	router := NewBasicRouter()
	router.Use(RequestLogger(logger), NewHTTPMetrics(opts.Registry).Middleware)

	api := NewAPI(opts.Store, opts.Provider, sessions, logger)
	api.Register(router)

	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))
	if opts.Config.Metrics {
		router.Handler(NewMetricsHandler(opts.Registry))
	}
	logger.Debug("routes registered", "count", len(router.Routes()), "routes", router.Routes())

	return &Server{
		addr:    opts.Config.Addr(),
		router:  router,
		api:     api,
		logger:  logger,
		metrics: opts.Config.Metrics,
	}, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr, "metrics", s.metrics)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
	s.api.players.CloseAll()
	return nil
}
