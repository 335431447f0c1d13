package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kmorell/sitedigest/internal/blobstore"
	"github.com/kmorell/sitedigest/internal/config"
	"github.com/kmorell/sitedigest/internal/llm"
	"github.com/kmorell/sitedigest/internal/queue"
	"github.com/kmorell/sitedigest/internal/store"
)

// Server is the HTTP ingestion API for sitedigest.
type Server struct {
	router chi.Router
	jobs   *store.Mongo
	blobs  blobstore.Store
	queue  queue.Queue
	stats  *llm.Stats
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(jobs *store.Mongo, blobs blobstore.Store, q queue.Queue, stats *llm.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		jobs:  jobs,
		blobs: blobs,
		queue: q,
		stats: stats,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/reports", s.handleCreateReport)
		r.Get("/api/reports/{jobID}", s.handleGetReport)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
