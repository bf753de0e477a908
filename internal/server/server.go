// =============================================================================
// Price Book Importer - HTTP Import API
// =============================================================================
//
// This module exposes the import pipeline over HTTP. It is the service-side
// counterpart of the web app's import dialog: clients upload a price list
// file, receive a priced preview, and trigger the batch submission.
//
// ROUTES:
//   POST /api/v1/imports/preview  Upload a file, get the priced preview
//   POST /api/v1/imports          Upload a file and submit the batch
//   GET  /healthz                 Liveness check
//
// Each request creates its own import session; nothing is shared between
// requests, so no locking discipline is required.
//
// =============================================================================

package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elecmate/pricebook-importer/internal/config"
	"github.com/elecmate/pricebook-importer/internal/importer"
	"github.com/elecmate/pricebook-importer/internal/submit"
)

// Server is the HTTP import API.
type Server struct {
	cfg       *config.MainConfig
	submitter importer.BatchSubmitter
	router    chi.Router
	log       zerolog.Logger
}

// New creates the HTTP server with its routes and middleware configured.
// The submission client is built from the application configuration.
func New(cfg *config.MainConfig) *Server {
	s := &Server{
		cfg:       cfg,
		submitter: submit.NewClient(cfg),
		log:       log.With().Str("component", "server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/imports/preview", s.handlePreview)
		r.Post("/imports", s.handleImport)
	})

	s.router = r
	return s
}

// SetSubmitter replaces the submission collaborator (useful for testing).
func (s *Server) SetSubmitter(submitter importer.BatchSubmitter) {
	s.submitter = submitter
}

// Handler returns the configured router (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server on the configured listen address and blocks.
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.cfg.Server.ListenAddr).Msg("http server listening")
	return http.ListenAndServe(s.cfg.Server.ListenAddr, s.router)
}
