package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/buildinfo"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/integrations"
	"github.com/matzehuels/pomgraph/pkg/resolve"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Coordinate string `json:"coordinate"`
	RepoURL    string `json:"repoURL,omitempty"`

	// DryRun resolves without writing to the store.
	DryRun bool `json:"dryRun,omitempty"`
}

// ResolveResponse is the body returned for a successful resolution.
type ResolveResponse struct {
	Nodes    []*artifact.Node         `json:"nodes"`
	Missing  []resolve.MissingVersion `json:"missing,omitempty"`
	Dangling []artifact.Coordinate    `json:"dangling,omitempty"`
	Fetched  int                      `json:"fetched"`
	Adopted  int                      `json:"adopted"`
	Stored   int                      `json:"stored"`
}

// UpToDateResponse is the body of GET /v1/nodes/{coordinate}/uptodate.
type UpToDateResponse struct {
	Coordinate string `json:"coordinate"`
	Target     string `json:"target"`
	UpToDate   bool   `json:"upToDate"`
}

// ErrorResponse wraps every error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error code and a user-facing message.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "pomgraph",
		Version:   buildinfo.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Details:   map[string]string{"go_version": runtime.Version()},
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	c, err := artifact.ParseCoordinate(req.Coordinate)
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidCoordinate, "%v", err))
		return
	}
	repo := req.RepoURL
	if repo == "" {
		repo = s.cfg.RepoURL
	}
	repo, err = integrations.NormalizeRepoURL(repo)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx := r.Context()
	res, err := s.cfg.Resolver.Resolve(ctx, resolve.Identifier{Coordinate: c, RepoURL: repo})
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := ResolveResponse{
		Missing:  res.Missing,
		Dangling: res.Dangling,
		Fetched:  res.Fetched,
		Adopted:  res.Adopted,
	}
	for _, rec := range res.Nodes {
		if !req.DryRun {
			if err := s.cfg.Gateway.SaveOrMerge(ctx, rec); err != nil {
				s.writeError(w, err)
				return
			}
			out.Stored++
		}
		n, err := artifact.Materialize(ctx, rec)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeStore, err, "load %s", rec.Node().Coordinate))
			return
		}
		out.Nodes = append(out.Nodes, n)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) node(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinate(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	p, err := s.cfg.Gateway.Get(ctx, c)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p == nil {
		s.writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node %s is not stored", c))
		return
	}
	n, err := artifact.Materialize(ctx, p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) upToDate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinate(w, r)
	if !ok {
		return
	}
	target := r.URL.Query().Get("target")
	if target == "" {
		target = s.cfg.CrawlVersion
	}
	fresh, err := s.cfg.Gateway.ContainsUpToDate(r.Context(), c, target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpToDateResponse{Coordinate: c.String(), Target: target, UpToDate: fresh})
}

func (s *Server) coordinate(w http.ResponseWriter, r *http.Request) (artifact.Coordinate, bool) {
	c, err := artifact.ParseCoordinate(chi.URLParam(r, "coordinate"))
	if err != nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidCoordinate, "%v", err))
		return artifact.Coordinate{}, false
	}
	return c, true
}

// statusOf maps error codes to HTTP status codes.
func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidCoordinate, errors.ErrCodeConfiguration, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNodeNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnresolvedProperty, errors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeFetch, errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusOf(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
