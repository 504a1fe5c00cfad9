// Package server provides the HTTP server and routing for the portfolio
// analytics service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/config"
	fixedincomehandlers "github.com/aristath/frontier/internal/modules/fixedincome/handlers"
	optimizationhandlers "github.com/aristath/frontier/internal/modules/optimization/handlers"
	riskhandlers "github.com/aristath/frontier/internal/modules/risk/handlers"
)

// Config holds server configuration
type Config struct {
	Log    zerolog.Logger
	Config *config.Config
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Config,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	return s
}

// setupRoutes wires the module handlers onto the router.
func (s *Server) setupRoutes() {
	systemHandlers := NewSystemHandlers(s.log)

	optimizationHandler := optimizationhandlers.NewHandler(optimizationhandlers.Defaults{
		RiskFreeRate:    s.cfg.RiskFreeRate,
		PeriodsPerYear:  s.cfg.PeriodsPerYear,
		FrontierPoints:  s.cfg.FrontierPoints,
		FrontierWorkers: s.cfg.FrontierWorkers,
	}, s.log)

	riskHandler := riskhandlers.NewHandler(riskhandlers.Defaults{
		RiskFreeRate:   s.cfg.RiskFreeRate,
		PeriodsPerYear: s.cfg.PeriodsPerYear,
	}, s.log)

	fixedIncomeHandler := fixedincomehandlers.NewHandler(s.log)

	s.router.Get("/health", systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", systemHandlers.HandleStatus)
		optimizationHandler.RegisterRoutes(r)
		riskHandler.RegisterRoutes(r)
		fixedIncomeHandler.RegisterRoutes(r)
	})
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
