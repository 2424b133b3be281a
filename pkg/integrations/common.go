package integrations

import (
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a manifest or resource doesn't exist in the repository.
	ErrNotFound = cache.ErrNotFound

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = cache.ErrNetwork
)

// NewHTTPClient creates an HTTP client with a standard timeout for repository requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizeRepoURL validates a repository base URL and strips trailing slashes.
// http, https and file URLs are accepted; file URLs point at a local
// repository layout such as ~/.m2/repository.
func NormalizeRepoURL(raw string) (string, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return "", errors.New(errors.ErrCodeConfiguration, "repository URL is required")
	}
	if strings.HasPrefix(s, "file://") {
		return s, nil
	}
	if err := errors.ValidateURL(s); err != nil {
		return "", errors.Wrap(errors.ErrCodeConfiguration, err, "invalid repository URL %q", raw)
	}
	return s, nil
}
