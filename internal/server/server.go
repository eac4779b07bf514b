// Package server provides the HTTP server and routing for petracker.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/petracker/internal/config"
	"github.com/aristath/petracker/internal/di"
	acquisitionhandlers "github.com/aristath/petracker/internal/modules/acquisition/handlers"
	markethandlers "github.com/aristath/petracker/internal/modules/market_hours/handlers"
	observationhandlers "github.com/aristath/petracker/internal/modules/observations/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

const (
	// requestTimeout bounds read-only API calls
	requestTimeout = 60 * time.Second
	// manualRunTimeout bounds POST /api/scrape-now, which walks the whole
	// fallback chain for every symbol when the batch service is down
	manualRunTimeout = 10 * time.Minute
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container

	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
	}

	var sched SchedulerStatus
	if cfg.Container.Scheduler != nil {
		sched = cfg.Container.Scheduler
	}
	s.systemHandlers = NewSystemHandlers(
		cfg.Container.DB,
		cfg.Container.ObservationRepo,
		sched,
		cfg.Container.Calendar,
		cfg.Container.Universe.Len(),
		cfg.Config.DataDir,
		cfg.Log,
	)

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: manualRunTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Manual runs get their own deadline
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(manualRunTimeout))
			acquisitionhandlers.NewHandler(s.container.AcquisitionService, s.log).RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			observationhandlers.NewHandler(s.container.ObservationRepo, s.log).RegisterRoutes(r)

			var next markethandlers.NextRunProvider
			if s.container.Scheduler != nil {
				next = s.container.Scheduler
			}
			markethandlers.NewHandler(s.container.Calendar, next, s.log).RegisterRoutes(r)

			s.setupSystemRoutes(r)
		})
	})
}

// setupSystemRoutes configures monitoring routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", s.systemHandlers.HandleSystemStatus)
		r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		r.Get("/disk", s.systemHandlers.HandleDiskUsage)
	})
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
