// Package httpserver provides the HTTP REST API server for the paper
// discovery service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/paperscout/discovery-service/internal/assistant"
	"github.com/paperscout/discovery-service/internal/domain"
	"github.com/paperscout/discovery-service/internal/observability"
	"github.com/paperscout/discovery-service/internal/search"
)

// SearchService is the paper search surface the server exposes.
type SearchService interface {
	SearchPapers(ctx context.Context, query search.Query) (*search.Result, error)
}

// AssistantService is the AI flow surface the server exposes.
type AssistantService interface {
	SummarizeAbstract(ctx context.Context, abstract string) (string, error)
	SuggestSimilarPapers(ctx context.Context, req assistant.SuggestRequest) ([]domain.Paper, error)
	ExtractAttributes(ctx context.Context, req assistant.ExtractRequest) ([]assistant.PaperAttributes, error)
	GenerateLiteratureReview(ctx context.Context, papers []assistant.PaperSummary) (string, error)
	GenerateEmbeddings(ctx context.Context, documents []string) ([][]float32, error)
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	search     SearchService
	assistant  AssistantService
	logger     zerolog.Logger
	metrics    *observability.Metrics
	config     Config
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	MetricsPath     string
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	searchSvc SearchService,
	assistantSvc AssistantService,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	s := &Server{
		search:    searchSvc,
		assistant: assistantSvc,
		logger:    logger.With().Str("component", "http-server").Logger(),
		metrics:   metrics,
		config:    cfg,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(s.requestLoggingMiddleware)

	// Health endpoint (no auth)
	r.Get("/healthz", s.healthHandler)

	if s.config.MetricsEnabled {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Get("/search", s.searchPapers)

		r.Route("/papers", func(r chi.Router) {
			r.Post("/summarize", s.summarizeAbstract)
			r.Post("/suggest", s.suggestPapers)
			r.Post("/attributes", s.extractAttributes)
		})

		r.Post("/reviews", s.generateReview)
		r.Post("/embeddings", s.generateEmbeddings)
	})

	return r
}

// Router returns the server's handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
