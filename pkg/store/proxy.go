package store

import (
	"context"
	"sync"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// DependencyLoader reads the relationships of a stored node.
type DependencyLoader interface {
	GetParent(ctx context.Context, c artifact.Coordinate) (*artifact.Coordinate, error)
	GetDependencies(ctx context.Context, c artifact.Coordinate) ([]artifact.Dependency, error)
	GetDependencyManagement(ctx context.Context, c artifact.Coordinate) ([]artifact.Dependency, error)
}

// Proxy is a stored node whose relationships are loaded on first access.
//
// Scalar fields are read eagerly. Parent, dependencies and management each
// have their own loaded flag; a successful load is memoized for the proxy's
// lifetime, a failed one is retried on the next call. A Proxy is safe for
// concurrent use.
type Proxy struct {
	node   *artifact.Node
	loader DependencyLoader

	mu           sync.Mutex
	parentLoaded bool
	depsLoaded   bool
	mgmtLoaded   bool
	parent       *artifact.Coordinate
	deps         []artifact.Dependency
	mgmt         []artifact.Dependency
}

var _ artifact.Record = (*Proxy)(nil)

// NewProxy wraps the scalar view n. Relationship fields of n are ignored.
func NewProxy(n *artifact.Node, loader DependencyLoader) *Proxy {
	scalar := *n
	scalar.Parent, scalar.Dependencies, scalar.Management = nil, nil, nil
	return &Proxy{node: &scalar, loader: loader}
}

// Node returns the scalar view. Its relationship fields are always empty.
func (p *Proxy) Node() *artifact.Node { return p.node }

// Proxied reports true.
func (p *Proxy) Proxied() bool { return true }

// LoadParent returns the parent reference, querying the store once.
func (p *Proxy) LoadParent(ctx context.Context) (*artifact.Coordinate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parentLoaded {
		return p.parent, nil
	}
	parent, err := p.loader.GetParent(ctx, p.node.Coordinate)
	if err != nil {
		return nil, err
	}
	observability.Store().OnLazyLoad(ctx, "parent")
	p.parent, p.parentLoaded = parent, true
	return p.parent, nil
}

// LoadDependencies returns the dependency list, querying the store once.
func (p *Proxy) LoadDependencies(ctx context.Context) ([]artifact.Dependency, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.depsLoaded {
		return p.deps, nil
	}
	deps, err := p.loader.GetDependencies(ctx, p.node.Coordinate)
	if err != nil {
		return nil, err
	}
	observability.Store().OnLazyLoad(ctx, "dependencies")
	p.deps, p.depsLoaded = deps, true
	return p.deps, nil
}

// LoadManagement returns the dependency-management list, querying the store once.
func (p *Proxy) LoadManagement(ctx context.Context) ([]artifact.Dependency, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mgmtLoaded {
		return p.mgmt, nil
	}
	mgmt, err := p.loader.GetDependencyManagement(ctx, p.node.Coordinate)
	if err != nil {
		return nil, err
	}
	observability.Store().OnLazyLoad(ctx, "management")
	p.mgmt, p.mgmtLoaded = mgmt, true
	return p.mgmt, nil
}
