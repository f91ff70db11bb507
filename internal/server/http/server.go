// Package httpserver provides the HTTP REST API for the PubMed fetch
// service. It is a thin calling layer: handlers validate input, invoke
// the fetch client or batch orchestrator, and serialize domain records
// as JSON.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/observability"
)

// FetchService is the set of point operations the handlers expose.
// *eutils.Client satisfies it.
type FetchService interface {
	Search(ctx context.Context, query string, retMax, retStart int) (domain.SearchResult, error)
	FetchArticles(ctx context.Context, pmids []string) ([]domain.ArticleRecord, error)
	FetchFullText(ctx context.Context, id string) (domain.FullTextRecord, error)
	CitationCounts(ctx context.Context, pmids []string) ([]domain.CitationCountRecord, error)
	Similar(ctx context.Context, pmids []string) (map[string][]string, error)
	FetchRIS(ctx context.Context, pmids []string) (string, error)
}

// BatchRunner executes batch requests. *batch.Orchestrator satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, pmids []string, kinds []domain.OperationKind) (*domain.BatchResult, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBatchIdentifiers bounds how many identifiers one batch request
	// may carry.
	MaxBatchIdentifiers int

	// MetricsPath exposes the Prometheus endpoint when non-empty.
	MetricsPath string
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	fetcher    FetchService
	batch      BatchRunner
	validate   *validator.Validate
	logger     zerolog.Logger
	config     Config
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, fetcher FetchService, batch BatchRunner, logger zerolog.Logger) *Server {
	if cfg.MaxBatchIdentifiers <= 0 {
		cfg.MaxBatchIdentifiers = 50
	}

	s := &Server{
		fetcher:  fetcher,
		batch:    batch,
		validate: validator.New(),
		logger:   logger.With().Str("component", "http-server").Logger(),
		config:   cfg,
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

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthHandler)
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.searchHandler)
		r.Post("/batch", s.batchHandler)
		r.Route("/articles/{pmid}", func(r chi.Router) {
			r.Get("/", s.getArticle)
			r.Get("/fulltext", s.getFullText)
			r.Get("/citations", s.getCitations)
			r.Get("/similar", s.getSimilar)
			r.Get("/ris", s.getRIS)
		})
	})

	return r
}

// Router returns the configured handler, mainly for tests.
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

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger := observability.WithRequestContext(s.logger, middleware.GetReqID(r.Context()), r.Method, r.URL.Path)
		logger.Debug().
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request handled")
	})
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort log; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
