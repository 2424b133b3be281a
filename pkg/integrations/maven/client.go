package maven

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/cache"
	"github.com/matzehuels/pomgraph/pkg/integrations"
	"github.com/matzehuels/pomgraph/pkg/manifest"
)

// CentralURL is the base URL of Maven Central.
const CentralURL = "https://repo1.maven.org/maven2"

// Client fetches POMs from any number of repositories.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	cache   cache.Cache
	ttl     time.Duration
	headers map[string]string

	// Refresh bypasses cached POMs when set.
	Refresh bool

	mu      sync.Mutex
	clients map[string]*integrations.Client
}

var _ manifest.Fetcher = (*Client)(nil)

// NewClient creates a client caching POM bytes in c for ttl.
// A nil cache disables caching.
func NewClient(c cache.Cache, ttl time.Duration) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		cache:   c,
		ttl:     ttl,
		clients: make(map[string]*integrations.Client),
	}
}

// WithHeaders sets default headers, e.g. an Authorization header for a
// private repository manager.
func (c *Client) WithHeaders(h map[string]string) *Client {
	c.headers = h
	return c
}

// Fetch downloads and parses the POM named by req.
//
// Returns an error wrapping [integrations.ErrNotFound] when the repository
// has no such file, [integrations.ErrNetwork] for transport failures, and a
// coded INVALID_MANIFEST error when the document cannot be parsed.
func (c *Client) Fetch(ctx context.Context, req manifest.Request) (*manifest.Manifest, error) {
	data, err := c.FetchPOM(ctx, req)
	if err != nil {
		return nil, err
	}
	m, err := manifest.ParsePOM(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req, err)
	}
	return m, nil
}

// FetchPOM returns the raw POM bytes named by req.
func (c *Client) FetchPOM(ctx context.Context, req manifest.Request) ([]byte, error) {
	repo, err := integrations.NormalizeRepoURL(req.RepoURL)
	if err != nil {
		return nil, err
	}
	path, err := POMPath(req)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(repo, "file://") {
		return readLocal(repo, path)
	}

	client := c.clientFor(repo)
	target := repo + "/" + path
	data, err := client.CachedBytes(ctx, path, c.Refresh, func() ([]byte, error) {
		return client.GetBytes(ctx, target)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, target)
	}
	return data, nil
}

func (c *Client) clientFor(repo string) *integrations.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.clients[repo]; ok {
		return cl
	}
	prefix := "repo:" + cache.Hash([]byte(repo))[:12] + ":"
	cl := integrations.NewClient(c.cache, "maven", c.ttl, c.headers).
		WithKeyer(cache.NewScopedKeyer(nil, prefix))
	c.clients[repo] = cl
	return cl
}

// POMPath returns the repository-relative path of the manifest named by req.
func POMPath(req manifest.Request) (string, error) {
	if req.Group == "" || req.Artifact == "" || req.Version == "" {
		return "", fmt.Errorf("incomplete coordinate %s", req)
	}
	for _, part := range []string{req.Group, req.Artifact, req.Version, req.Classifier} {
		if strings.Contains(part, "/") || strings.Contains(part, "..") {
			return "", fmt.Errorf("invalid coordinate %s", req)
		}
	}
	ext := req.Extension
	if ext == "" {
		ext = manifest.DefaultExtension
	}
	file := req.Artifact + "-" + req.Version
	if req.Classifier != "" && req.Classifier != artifact.NullClassifier {
		file += "-" + req.Classifier
	}
	return strings.ReplaceAll(req.Group, ".", "/") + "/" + req.Artifact + "/" + req.Version + "/" + file + "." + ext, nil
}

func readLocal(repo, path string) ([]byte, error) {
	u, err := url.Parse(repo)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(filepath.FromSlash(u.Path), filepath.FromSlash(path))
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", integrations.ErrNotFound, full)
	}
	return data, err
}
