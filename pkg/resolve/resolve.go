package resolve

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/manifest"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// DefaultMaxPropertyPasses bounds how many times one node's properties are
// re-substituted when values refer to further placeholders.
const DefaultMaxPropertyPasses = 32

// Options configures a Resolver.
type Options struct {
	// CrawlVersion is stamped on fetched nodes. Stored FULL nodes whose crawl
	// version compares lexicographically at or above it are adopted instead
	// of fetched.
	CrawlVersion string

	// MaxPropertyPasses bounds placeholder indirection (default: 32).
	MaxPropertyPasses int

	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxPropertyPasses <= 0 {
		opts.MaxPropertyPasses = DefaultMaxPropertyPasses
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Lookup finds stored nodes. It returns a nil Record when the store has no
// node with exactly c's identity.
type Lookup interface {
	Lookup(ctx context.Context, c artifact.Coordinate) (artifact.Record, error)
}

// Identifier is one package to resolve, as delivered by a work queue.
type Identifier struct {
	artifact.Coordinate
	RepoURL string `json:"repoURL"`
}

// MissingVersion is a dependency whose version was not found in any
// reachable dependency management.
type MissingVersion struct {
	Node       artifact.Coordinate `json:"node"`
	Dependency artifact.Coordinate `json:"dependency"`
	List       string              `json:"list"` // "dependencies" or "management"
	Profile    string              `json:"profile,omitempty"`
}

// Result is the outcome of one run.
type Result struct {
	// Nodes holds the seed first, then every node fetched during the run in
	// discovery order. An adopted seed is a store proxy.
	Nodes []artifact.Record

	// Missing lists dependencies left without a version.
	Missing []MissingVersion

	// Dangling lists ancestors and imports whose manifest could not be fetched.
	Dangling []artifact.Coordinate

	Fetched int
	Adopted int
}

// Resolver runs resolutions. It is safe for concurrent use; each Resolve
// call is independent.
type Resolver struct {
	fetcher manifest.Fetcher
	lookup  Lookup
	opts    Options
}

// New creates a Resolver. lookup may be nil, in which case every node is
// fetched.
func New(fetcher manifest.Fetcher, lookup Lookup, opts Options) *Resolver {
	return &Resolver{fetcher: fetcher, lookup: lookup, opts: opts.WithDefaults()}
}

// Resolve computes the closed set of nodes for id.
func (r *Resolver) Resolve(ctx context.Context, id Identifier) (res *Result, err error) {
	seed := id.Coordinate.Normalize()
	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, seed.String())
	start := time.Now()
	defer func() {
		n := 0
		if res != nil {
			n = len(res.Nodes)
		}
		hooks.OnResolveComplete(ctx, seed.String(), n, time.Since(start), err)
	}()

	if r.fetcher == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "no manifest fetcher configured")
	}
	if id.RepoURL == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "identifier %s has no repository URL", seed)
	}
	if err := errors.ValidateCoordinate(seed.Group, seed.Artifact, seed.Version); err != nil {
		return nil, err
	}

	ru := &run{
		Resolver: r,
		ctx:      ctx,
		log:      r.opts.Logger.With("seed", seed.String()),
		repoURL:  id.RepoURL,
		seed:     seed.Key(),
		arena:    make(map[string]*entry),
		result:   &Result{},

		resolving: make(map[string]bool),
	}
	if err := ru.drain(seed); err != nil {
		return nil, err
	}
	ru.log.Debug("resolved", "nodes", len(ru.result.Nodes), "fetched", ru.result.Fetched,
		"adopted", ru.result.Adopted, "missing", len(ru.result.Missing))
	return ru.result, nil
}
