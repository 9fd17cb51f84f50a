// Package api serves escrow accounts over a REST API.
//
// Every route under /api/v1 requires the X-API-Key header when the server is
// configured with a key. /metrics is left open for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultStatsInterval   = 30 * time.Second
)

// Server holds the API server state
type Server struct {
	service EscrowService
	config  ServerConfig
	metrics *Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server
func NewServer(svc EscrowService, config ServerConfig, metrics *Metrics, logger *zap.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaultShutdownTimeout
	}
	if config.StatsInterval <= 0 {
		config.StatsInterval = defaultStatsInterval
	}
	return &Server{
		service: svc,
		config:  config,
		metrics: metrics,
		logger:  logger.Named("api"),
	}
}

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	origins := s.config.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.APIKey != "" {
			r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))
		}

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))
		r.Get("/layout", s.metrics.InstrumentHandler("GET", "/api/v1/layout", s.handleLayout))
		r.Get("/stats", s.metrics.InstrumentHandler("GET", "/api/v1/stats", s.handleStats))

		r.Get("/escrows", s.metrics.InstrumentHandler("GET", "/api/v1/escrows", s.handleList))
		r.Post("/escrows", s.metrics.InstrumentHandler("POST", "/api/v1/escrows", s.handleMake))
		r.Get("/escrows/{address}", s.metrics.InstrumentHandler("GET", "/api/v1/escrows/{address}", s.handleGet))
		r.Get("/escrows/{address}/raw", s.metrics.InstrumentHandler("GET", "/api/v1/escrows/{address}/raw", s.handleRaw))
		r.Patch("/escrows/{address}", s.metrics.InstrumentHandler("PATCH", "/api/v1/escrows/{address}", s.handleUpdate))
		r.Delete("/escrows/{address}", s.metrics.InstrumentHandler("DELETE", "/api/v1/escrows/{address}", s.handleClose))
	})

	return r
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, fmt.Sprint(s.config.Port))
}

// Run listens on the configured address and serves until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting escrow API server",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("auth", s.config.APIKey != ""))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down escrow API server")
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		s.runStatsUpdater(gctx)
		return nil
	})

	return g.Wait()
}

// runStatsUpdater feeds backend statistics into the gauges until ctx ends
func (s *Server) runStatsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	for {
		stats := s.service.Stats()
		s.metrics.UpdateAccountStats(stats.Accounts, stats.DataSize)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
