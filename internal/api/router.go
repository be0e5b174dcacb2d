// Package api provides the REST API for prpkit-service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/prpkit/prpkit/internal/config"
	"github.com/prpkit/prpkit/pkg/contextpack"
	"github.com/prpkit/prpkit/pkg/workflow"
)

// Server represents the API server.
type Server struct {
	cfg      *config.Config
	router   chi.Router
	workflow *workflow.Workflow
	index    *contextpack.Index
}

// NewServer creates a new API server. The index may be nil when
// context search is not configured.
func NewServer(cfg *config.Config, wf *workflow.Workflow, index *contextpack.Index) *Server {
	s := &Server{
		cfg:      cfg,
		workflow: wf,
		index:    index,
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Optional API key authentication
	if s.cfg.API.APIKey != "" {
		r.Use(s.apiKeyAuth)
	}

	// Health and version endpoints (no auth)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	// API routes
	r.Route("/prps", func(r chi.Router) {
		r.Get("/", s.handleListPRPs)
		r.Post("/", s.handleCreatePRP)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetPRP)
			r.Get("/lint", s.handleLintPRP)
			r.Post("/gates", s.handleRunGates)
			r.Post("/review", s.handleReviewPRP)
			r.Post("/complete", s.handleCompletePRP)
		})
	})

	r.Post("/prime", s.handlePrime)
	r.Post("/search", s.handleSearch)
	r.Get("/session", s.handleSession)

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// apiKeyAuth is middleware that validates API key.
func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health and version
		if r.URL.Path == "/health" || r.URL.Path == "/version" {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey != s.cfg.API.APIKey {
			writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
