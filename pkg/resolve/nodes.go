package resolve

import (
	"maps"
	"time"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
	"github.com/matzehuels/pomgraph/pkg/manifest"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// resolveNode is the node phase: adopt or fetch, then enqueue the parent.
func (r *run) resolveNode(w nodeWork) error {
	key := w.coord.Key()
	if _, seen := r.arena[key]; seen {
		return nil
	}
	e := &entry{coord: w.coord, state: artifact.StateDangling, top: w.top}
	r.arena[key] = e

	adopted, err := r.adopt(e)
	if err != nil {
		return err
	}
	if !adopted {
		if err := r.fetch(e); err != nil {
			return err
		}
	}
	if e.parent != nil {
		r.work.nodes.pushBack(nodeWork{coord: *e.parent, top: w.top})
	}
	return nil
}

// adopt takes an up-to-date FULL node from the store.
func (r *run) adopt(e *entry) (bool, error) {
	if r.lookup == nil {
		return false, nil
	}
	rec, err := r.lookup.Lookup(r.ctx, e.coord)
	if err != nil {
		if e.coord.Key() == r.seed {
			return false, errors.Wrap(errors.ErrCodeStore, err, "look up %s", e.coord)
		}
		r.log.Warn("store lookup failed", "node", e.coord.String(), "err", err)
		return false, nil
	}
	if rec == nil || !rec.Node().IsFull() || rec.Node().CrawlVersion < r.opts.CrawlVersion {
		return false, nil
	}

	parent, err := rec.LoadParent(r.ctx)
	if err != nil {
		r.log.Warn("load parent failed", "node", e.coord.String(), "err", err)
	} else if parent != nil {
		p := parentCoord(*parent)
		e.parent = &p
	}
	e.rec = rec
	e.state = artifact.StateDependenciesResolved
	r.result.Adopted++
	observability.Resolve().OnAdopt(r.ctx, e.coord.String())
	r.log.Debug("adopted", "node", e.coord.String(), "crawl", rec.Node().CrawlVersion)

	if e.coord.Key() == r.seed {
		r.result.Nodes = append(r.result.Nodes, rec)
	}
	return true, nil
}

// fetch downloads the manifest and builds the FULL node.
func (r *run) fetch(e *entry) error {
	e.state = artifact.StateFetching
	start := time.Now()
	m, err := r.fetcher.Fetch(r.ctx, manifest.RequestFor(e.coord, r.repoURL))
	observability.Resolve().OnFetch(r.ctx, e.coord.String(), time.Since(start), err)
	if err != nil {
		e.state = artifact.StateDangling
		if e.coord.Key() == r.seed {
			return errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", e.coord)
		}
		r.log.Warn("fetch failed", "node", e.coord.String(), "err", err)
		r.result.Dangling = append(r.result.Dangling, e.coord)
		return nil
	}

	n := &artifact.Node{
		Coordinate:   e.coord,
		Resolution:   artifact.Full,
		CrawlVersion: r.opts.CrawlVersion,
		RepoURL:      r.repoURL,
		Properties:   maps.Clone(m.Properties),
		Dependencies: convert(m.Dependencies),
		Management:   convert(m.Management),
	}
	if n.Properties == nil {
		n.Properties = make(map[string]string)
	}
	if p := m.Parent; p != nil {
		pc := parentCoord(artifact.Coordinate{Group: p.Group, Artifact: p.Artifact, Version: p.Version})
		n.Parent = &pc
		e.parent = &pc
	}

	e.node, e.rec = n, n
	e.state = artifact.StateFull
	r.result.Fetched++
	r.result.Nodes = append(r.result.Nodes, n)
	r.work.props.pushBack(propertyWork{key: e.coord.Key()})
	r.log.Debug("fetched", "node", e.coord.String(), "dependencies", len(n.Dependencies), "management", len(n.Management))
	return nil
}

// convert turns manifest entries into edges, numbering positions from 0 per
// profile in declaration order.
func convert(in []manifest.Dependency) []artifact.Dependency {
	if len(in) == 0 {
		return nil
	}
	next := make(map[string]int)
	out := make([]artifact.Dependency, len(in))
	for i, d := range in {
		target := artifact.Coordinate{
			Group:      d.Group,
			Artifact:   d.Artifact,
			Version:    d.Version,
			Classifier: d.Classifier,
			Packaging:  d.Type,
		}.Normalize()
		out[i] = artifact.Dependency{
			Target:     target,
			Scope:      artifact.ParseScope(d.Scope),
			Optional:   d.Optional,
			Profile:    d.Profile,
			Type:       target.Packaging,
			Classifier: target.Classifier,
			Position:   next[d.Profile],
			Exclusions: d.Exclusions,
		}
		next[d.Profile]++
	}
	return out
}
