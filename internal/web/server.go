// Package web provides the HTTP server and handlers for the OSCE
// administration API. All responses are JSON; the router, middleware
// stack, and error mapping live here, while the pipelines and the store
// carry the business logic.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oscehub/oscehub/internal/config"
	"github.com/oscehub/oscehub/internal/feedback"
	"github.com/oscehub/oscehub/internal/ingest"
	"github.com/oscehub/oscehub/internal/model"
	"github.com/oscehub/oscehub/internal/store"
)

// Server is the HTTP server for the administration API.
type Server struct {
	cols     *store.Collections
	feedback *feedback.Service
	limiter  *ingest.Limiter
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server over an explicit collection set.
func NewServer(cols *store.Collections, cfg *config.Config) *Server {
	s := &Server{
		cols:     cols,
		feedback: feedback.NewService(cols.Feedback, cols.Stations),
		limiter:  ingest.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWait),
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Hierarchy entities
		mountCRUD(r, "/administrations", s.administrationResource())
		mountCRUD(r, "/tracks", s.trackResource())
		mountCRUD(r, "/stations", s.stationResource())

		// Participant rosters: CRUD plus CSV bulk ingestion
		for _, kind := range model.Kinds() {
			kind := kind
			r.Route("/"+routeSegment(kind), func(r chi.Router) {
				mountCRUD(r, "/", s.participantResource(kind))
				r.Post("/upload-csv", s.handleUploadCSV(kind))
			})
		}

		// Feedback collection and analytics
		r.Post("/feedback", s.handleSubmitFeedback)
		r.Get("/feedback", s.handleListFeedback)
		r.Get("/feedback/analytics", s.handleFeedbackAnalytics)

		// Schedule generation was never implemented upstream; keep the
		// route so clients get an explicit 501 rather than a 404.
		r.Post("/generate-schedule", s.handleGenerateSchedule)
	})
}

// routeSegment pluralizes a participant kind for its route prefix.
func routeSegment(kind model.Kind) string {
	return string(kind) + "s"
}

// handleHealth is the liveness endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerateSchedule answers the unimplemented scheduling endpoint.
func (s *Server) handleGenerateSchedule(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotImplemented, "NOT_IMPLEMENTED",
		"schedule generation is not implemented")
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds response hardening headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
