// Package api serves the resolver and the graph store over HTTP.
//
// Routes:
//
//	GET  /healthz                              liveness
//	POST /v1/resolve                           resolve one identifier and store the result
//	GET  /v1/nodes/{coordinate}                a stored node with its relationships
//	GET  /v1/nodes/{coordinate}/uptodate       ContainsUpToDate against ?target=
//	GET  /metrics                              Prometheus metrics, when configured
//
// Coordinates use the command-line form group:artifact[:packaging[:classifier]]:version.
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pomgraph/pkg/resolve"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// Config wires a Server.
type Config struct {
	Resolver *resolve.Resolver
	Gateway  *store.Gateway

	// RepoURL is used when a resolve request names no repository.
	RepoURL string

	// CrawlVersion is the default target of up-to-date checks.
	CrawlVersion string

	// Metrics is mounted at /metrics when set.
	Metrics http.Handler

	Logger *log.Logger
}

// Server handles API requests.
type Server struct {
	cfg     Config
	logger  *log.Logger
	started time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{cfg: cfg, logger: logger, started: time.Now()}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/resolve", s.resolve)
		r.Get("/nodes/{coordinate}", s.node)
		r.Get("/nodes/{coordinate}/uptodate", s.upToDate)
	})
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"id", middleware.GetReqID(r.Context()))
	})
}
