package manifest

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/cache"
)

// DefaultExtension is the file extension of a build descriptor.
const DefaultExtension = "pom"

// Request names the manifest to fetch.
type Request struct {
	Group      string
	Artifact   string
	Version    string
	Classifier string // "" or artifact.NullClassifier for none
	RepoURL    string
	Extension  string // defaults to DefaultExtension
}

// RequestFor builds a request for c from repoURL.
func RequestFor(c artifact.Coordinate, repoURL string) Request {
	return Request{
		Group:      c.Group,
		Artifact:   c.Artifact,
		Version:    c.Version,
		Classifier: c.Classifier,
		RepoURL:    repoURL,
		Extension:  DefaultExtension,
	}
}

// String renders the request as group:artifact:version.
func (r Request) String() string {
	return r.Group + ":" + r.Artifact + ":" + r.Version
}

// Fetcher retrieves and parses manifests. Implementations must be safe for
// concurrent use; a single resolution run calls Fetch sequentially.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Manifest, error)
}

// Parent references the manifest a project inherits from.
type Parent struct {
	Group    string `json:"groupId"`
	Artifact string `json:"artifactId"`
	Version  string `json:"version"`
}

// Dependency is one <dependency> entry. An empty Version means the version
// is expected to come from dependency management.
type Dependency struct {
	Group      string               `json:"groupId"`
	Artifact   string               `json:"artifactId"`
	Version    string               `json:"version,omitempty"`
	Classifier string               `json:"classifier,omitempty"`
	Type       string               `json:"type,omitempty"`
	Scope      string               `json:"scope,omitempty"`
	Optional   bool                 `json:"optional,omitempty"`
	Profile    string               `json:"profile,omitempty"`
	Exclusions []artifact.Exclusion `json:"exclusions,omitempty"`
}

// Manifest is a parsed build descriptor.
type Manifest struct {
	Group        string            `json:"groupId"`
	Artifact     string            `json:"artifactId"`
	Version      string            `json:"version"`
	Packaging    string            `json:"packaging"`
	Name         string            `json:"name,omitempty"`
	Description  string            `json:"description,omitempty"`
	Parent       *Parent           `json:"parent,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	Dependencies []Dependency      `json:"dependencies,omitempty"`
	Management   []Dependency      `json:"dependencyManagement,omitempty"`
}

// MapFetcher serves manifests from memory, keyed by "group:artifact:version".
// It counts calls so tests can assert how many downloads a run performed.
type MapFetcher struct {
	mu        sync.Mutex
	manifests map[string]*Manifest
	calls     map[string]int
}

// NewMapFetcher returns a fetcher serving the given manifests.
func NewMapFetcher(ms ...*Manifest) *MapFetcher {
	f := &MapFetcher{manifests: make(map[string]*Manifest), calls: make(map[string]int)}
	for _, m := range ms {
		f.Add(m)
	}
	return f
}

// Add registers m under its own coordinates.
func (f *MapFetcher) Add(m *Manifest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifests[m.Group+":"+m.Artifact+":"+m.Version] = m
}

// Fetch returns the registered manifest or an error wrapping cache.ErrNotFound.
func (f *MapFetcher) Fetch(ctx context.Context, req Request) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := req.String()
	f.calls[key]++
	m, ok := f.manifests[key]
	if !ok {
		return nil, fmt.Errorf("%w: manifest %s", cache.ErrNotFound, key)
	}
	return m, nil
}

// Calls returns how many times key was fetched. An empty key returns the total.
func (f *MapFetcher) Calls(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key != "" {
		return f.calls[key]
	}
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}
