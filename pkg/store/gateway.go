package store

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// Gateway reads and writes package graphs through a Backend.
// It is safe for concurrent use when the backend is.
type Gateway struct {
	backend Backend
	logger  *log.Logger
}

var _ DependencyLoader = (*Gateway)(nil)

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for write diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway returns a gateway over backend.
func NewGateway(backend Backend, opts ...Option) *Gateway {
	g := &Gateway{backend: backend, logger: log.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the underlying backend.
func (g *Gateway) Backend() Backend { return g.backend }

// EnsureSchema creates the store's constraints and indexes.
func (g *Gateway) EnsureSchema(ctx context.Context) error {
	if err := g.backend.EnsureSchema(ctx); err != nil {
		return storeErr(err, "ensure schema")
	}
	return nil
}

// Close releases the backend.
func (g *Gateway) Close(ctx context.Context) error {
	return g.backend.Close(ctx)
}

// Get returns the node with exactly c's identity as a lazy proxy, or nil
// when the store has no such node.
func (g *Gateway) Get(ctx context.Context, c artifact.Coordinate) (*Proxy, error) {
	rec, err := g.backend.FindNode(ctx, c.Key())
	if err != nil {
		return nil, storeErr(err, "get %s", c)
	}
	if rec == nil {
		return nil, nil
	}
	n, err := nodeOf(rec)
	if err != nil {
		return nil, storeErr(err, "decode %s", c)
	}
	return NewProxy(n, g), nil
}

// Lookup is [Gateway.Get] returning a nil interface when the node is absent.
func (g *Gateway) Lookup(ctx context.Context, c artifact.Coordinate) (artifact.Record, error) {
	p, err := g.Get(ctx, c)
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

// ContainsUpToDate reports whether a FULL node with c's identity is stored
// with a crawl version lexicographically at or above target.
func (g *Gateway) ContainsUpToDate(ctx context.Context, c artifact.Coordinate, target string) (bool, error) {
	rec, err := g.backend.FindNode(ctx, c.Key())
	if err != nil {
		return false, storeErr(err, "lookup %s", c)
	}
	return rec != nil && rec.Resolution == artifact.Full && rec.CrawlVersion >= target, nil
}

// GetParent returns the parent of the stored node c, or nil.
func (g *Gateway) GetParent(ctx context.Context, c artifact.Coordinate) (*artifact.Coordinate, error) {
	rec, err := g.backend.FindParent(ctx, c.Key())
	if err != nil {
		return nil, storeErr(err, "parent of %s", c)
	}
	if rec == nil {
		return nil, nil
	}
	p := rec.Coordinate()
	return &p, nil
}

// GetDependencies returns the stored dependency list of c ordered by
// profile and position.
func (g *Gateway) GetDependencies(ctx context.Context, c artifact.Coordinate) ([]artifact.Dependency, error) {
	return g.list(ctx, c, EdgeDependsOn)
}

// GetDependencyManagement returns the stored dependency-management list of
// c ordered by profile and position. Import entries are included.
func (g *Gateway) GetDependencyManagement(ctx context.Context, c artifact.Coordinate) ([]artifact.Dependency, error) {
	return g.list(ctx, c, EdgeManages, EdgeImports)
}

func (g *Gateway) list(ctx context.Context, c artifact.Coordinate, kinds ...EdgeKind) ([]artifact.Dependency, error) {
	edges, err := g.backend.FindEdges(ctx, c.Key(), kinds...)
	if err != nil {
		return nil, storeErr(err, "edges of %s", c)
	}
	SortEdges(edges)
	deps := make([]artifact.Dependency, len(edges))
	for i, e := range edges {
		deps[i] = e.Dependency()
	}
	return deps, nil
}

// SaveOrMerge writes r and its relationships.
//
// A FULL proxy is skipped since it was just read from the store. Otherwise
// the node is checked with [Check] and nothing is written when it fails.
// The node merge overwrites stored data only for FULL writes; a DANGLING
// write creates the node if absent and leaves relationships untouched. A
// FULL write replaces the node's previous edges with its current parent,
// dependencies and management, creating DANGLING stubs for every target.
func (g *Gateway) SaveOrMerge(ctx context.Context, r artifact.Record) (err error) {
	start := time.Now()
	skipped := false
	defer func() {
		observability.Store().OnWrite(ctx, time.Since(start), skipped, err)
	}()

	if r.Proxied() && r.Node().IsFull() {
		skipped = true
		return nil
	}

	n, err := artifact.Materialize(ctx, r)
	if err != nil {
		return storeErr(err, "load %s", r.Node().Coordinate)
	}
	if err := Check(n); err != nil {
		var ve *errors.ValidationError
		if errors.As(err, &ve) {
			observability.Store().OnValidationFailure(ctx, len(ve.Violations))
		}
		return err
	}

	batch, err := batchOf(n)
	if err != nil {
		return storeErr(err, "encode %s", n.Coordinate)
	}
	if err := g.backend.Apply(ctx, batch); err != nil {
		return storeErr(err, "write %s", n.Coordinate)
	}
	g.logger.Debug("saved node", "node", n.Coordinate.String(), "resolution", n.Resolution,
		"dependencies", len(n.Dependencies), "management", len(n.Management))
	return nil
}

func batchOf(n *artifact.Node) (Batch, error) {
	self, err := recordOf(n)
	if err != nil {
		return Batch{}, err
	}
	b := Batch{Nodes: []NodeRecord{self}}
	if !n.IsFull() {
		return b, nil
	}

	key := self.Key()
	b.Replace = key
	if p := n.Parent; p != nil {
		parent := danglingRecord(*p)
		b.Nodes = append(b.Nodes, parent)
		b.Edges = append(b.Edges, EdgeRecord{
			Kind:   EdgeParent,
			Src:    parent.Key(),
			Dst:    key,
			Target: self.Coordinate(),
		})
	}
	for _, d := range n.Dependencies {
		b.Nodes = append(b.Nodes, danglingRecord(d.Target))
		b.Edges = append(b.Edges, edgeOf(EdgeDependsOn, key, d))
	}
	for _, d := range n.Management {
		kind := EdgeManages
		if d.Scope == artifact.ScopeImport {
			kind = EdgeImports
		}
		b.Nodes = append(b.Nodes, danglingRecord(d.Target))
		b.Edges = append(b.Edges, edgeOf(kind, key, d))
	}
	return b, nil
}

func edgeOf(kind EdgeKind, src string, d artifact.Dependency) EdgeRecord {
	t := d.Target.Normalize()
	return EdgeRecord{
		Kind:       kind,
		Src:        src,
		Dst:        t.Key(),
		Target:     t,
		Scope:      d.Scope,
		Optional:   d.Optional,
		Profile:    d.Profile,
		Type:       orDefault(d.Type, artifact.DefaultPackaging),
		Classifier: orDefault(d.Classifier, artifact.NullClassifier),
		Position:   d.Position,
		Exclusions: d.Exclusions,
	}
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}
