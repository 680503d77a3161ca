package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/minutes/internal/processor"
	"github.com/MikeSquared-Agency/minutes/internal/store"
)

// Analyzer runs one transcript through the pipeline.
type Analyzer interface {
	Process(ctx context.Context, transcript, source string) (*processor.Outcome, error)
}

// Lookup reads stored analyses.
type Lookup interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*store.Analysis, error)
	ListRecent(ctx context.Context, limit int) ([]store.Analysis, error)
}

type Server struct {
	router   *chi.Mux
	analyzer Analyzer
	lookup   Lookup
	model    string
}

// NewServer builds the HTTP API. lookup may be nil when no database is
// configured; apiToken empty disables auth on the analyses routes.
func NewServer(apiToken, model string, analyzer Analyzer, lookup Lookup) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		analyzer: analyzer,
		lookup:   lookup,
		model:    model,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/minutes/status", s.status)

	router.Route("/api/v1/analyses", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Post("/", s.createAnalysis)
		r.Get("/", s.listAnalyses)
		r.Get("/{id}", s.getAnalysis)
	})

	return s
}

// MountMetrics serves h at /metrics.
func (s *Server) MountMetrics(h http.Handler) {
	s.router.Handle("/metrics", h)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "minutes",
		"model":   s.model,
		"store":   s.lookup != nil,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
