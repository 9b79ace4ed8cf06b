package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/genomearc/servicekit/pkg/correlation"
)

// Server wraps an http.Server with the shared service middleware stack.
type Server struct {
	config  Config
	logger  *slog.Logger
	metrics *Metrics
	httpSrv *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer assembles the middleware stack around the given handler:
// tracing on the outside, then CORS, correlation IDs, request logging
// and metrics. The health and metrics endpoints bypass the app handler.
func NewServer(config Config, handler http.Handler, logger *slog.Logger) *Server {
	metrics := NewMetrics()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheck)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", stripRootPath(config.RootPath, handler))

	var stacked http.Handler = mux
	stacked = metrics.middleware(stacked)
	stacked = requestLogging(logger)(stacked)
	stacked = correlation.Middleware(logger)(stacked)
	stacked = corsHandler(config).Handler(stacked)
	stacked = otelhttp.NewHandler(stacked, "api.server")

	return &Server{
		config:  config,
		logger:  logger,
		metrics: metrics,
		httpSrv: &http.Server{
			Handler:      stacked,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

func corsHandler(config Config) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   config.CORSAllowedOrigins,
		AllowCredentials: config.CORSAllowCredentials,
		AllowedMethods:   config.CORSAllowedMethods,
		AllowedHeaders:   config.CORSAllowedHeaders,
		ExposedHeaders:   config.CORSExposedHeaders,
	})
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status": "OK"}`))
}

// stripRootPath removes the configured API root path prefix so handlers
// see paths relative to it.
func stripRootPath(rootPath string, handler http.Handler) http.Handler {
	rootPath = strings.TrimSuffix(rootPath, "/")
	if rootPath == "" {
		return handler
	}
	return http.StripPrefix(rootPath, handler)
}

// Handler returns the fully stacked handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Addr returns the bound listen address once Run has started the server.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.Addr()
	}
	return s.listener.Addr().String()
}

// Run serves until the context is cancelled, then shuts down gracefully
// within the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.logger.Info("Server listening", "addr", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}
