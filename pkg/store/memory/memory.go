// Package memory is an in-process graph store backend.
//
// It keeps nodes and edges in maps guarded by a single mutex, which makes
// each Apply atomic. It backs tests and one-shot CLI runs; anything shared
// between processes should use the mongo backend.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/store"
)

// Backend stores the graph in memory.
type Backend struct {
	mu    sync.RWMutex
	nodes map[string]store.NodeRecord
	edges map[string]store.EdgeRecord
	bySrc map[string]map[string]struct{}
	byDst map[string]map[string]struct{}
}

var _ store.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		nodes: make(map[string]store.NodeRecord),
		edges: make(map[string]store.EdgeRecord),
		bySrc: make(map[string]map[string]struct{}),
		byDst: make(map[string]map[string]struct{}),
	}
}

// EnsureSchema is a no-op: map keys already enforce identity uniqueness.
func (b *Backend) EnsureSchema(context.Context) error { return nil }

// FindNode returns a copy of the stored node, or nil.
func (b *Backend) FindNode(ctx context.Context, key string) (*store.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.nodes[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// FindParent returns the source of the PARENT edge into key, or nil.
func (b *Backend) FindParent(ctx context.Context, key string) (*store.NodeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id := range b.byDst[key] {
		e := b.edges[id]
		if e.Kind != store.EdgeParent {
			continue
		}
		if rec, ok := b.nodes[e.Src]; ok {
			return &rec, nil
		}
	}
	return nil, nil
}

// FindEdges returns the outgoing edges of key with one of kinds.
func (b *Backend) FindEdges(ctx context.Context, key string, kinds ...store.EdgeKind) ([]store.EdgeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []store.EdgeRecord
	for id := range b.bySrc[key] {
		e := b.edges[id]
		if len(kinds) == 0 || slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// Apply merges the batch under one lock.
func (b *Backend) Apply(ctx context.Context, batch store.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, n := range batch.Nodes {
		key := n.Key()
		if _, exists := b.nodes[key]; exists && n.Resolution != artifact.Full {
			continue
		}
		b.nodes[key] = n
	}

	if batch.Replace != "" {
		for id := range b.bySrc[batch.Replace] {
			if b.edges[id].Kind != store.EdgeParent {
				b.removeEdge(id)
			}
		}
		for id := range b.byDst[batch.Replace] {
			if b.edges[id].Kind == store.EdgeParent {
				b.removeEdge(id)
			}
		}
	}
	for _, e := range batch.Edges {
		id := e.ID()
		b.removeEdge(id)
		b.edges[id] = e
		index(b.bySrc, e.Src, id)
		index(b.byDst, e.Dst, id)
	}
	return nil
}

// Close is a no-op.
func (b *Backend) Close(context.Context) error { return nil }

// Len returns the number of stored nodes and edges.
func (b *Backend) Len() (nodes, edges int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes), len(b.edges)
}

// Nodes returns every stored node ordered by key.
func (b *Backend) Nodes() []store.NodeRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]store.NodeRecord, 0, len(b.nodes))
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

func (b *Backend) removeEdge(id string) {
	e, ok := b.edges[id]
	if !ok {
		return
	}
	delete(b.edges, id)
	unindex(b.bySrc, e.Src, id)
	unindex(b.byDst, e.Dst, id)
}

func index(m map[string]map[string]struct{}, key, id string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

func unindex(m map[string]map[string]struct{}, key, id string) {
	if set, ok := m[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}
