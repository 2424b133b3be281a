package resolve

import (
	"cmp"
	"slices"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/observability"
)

// pendingEdge is a dependency still waiting for a version.
type pendingEdge struct {
	dep  *artifact.Dependency
	list string
}

// resolveVersions is the dependency phase. Versionless edges are matched by
// group:artifact against dependency management, searching breadth-first
// from the node: its own plain entries in position order, then its imports
// (pushed to the head of the search queue), then its parent (pushed to the
// tail). The first entry with a version wins.
//
// Import targets fetched in this run are brought to DEPENDENCIES_RESOLVED
// before their management is read, so an imported entry carries the
// version its own hierarchy gives it.
func (r *run) resolveVersions(w dependencyWork) {
	e := r.arena[w.key]
	if e.state >= artifact.StateDependenciesResolved || r.resolving[w.key] {
		return
	}
	r.resolving[w.key] = true
	defer delete(r.resolving, w.key)
	n := e.node

	pending := make(map[string][]pendingEdge)
	collect := func(list string, deps []artifact.Dependency) {
		for i := range deps {
			if deps[i].MissingVersion() {
				ga := deps[i].Target.GA()
				pending[ga] = append(pending[ga], pendingEdge{dep: &deps[i], list: list})
			}
		}
	}
	collect("dependencies", n.Dependencies)
	collect("management", n.Management)

	if len(pending) > 0 {
		r.searchManagement(w.key, pending)
	}

	for _, edges := range pending {
		for _, p := range edges {
			miss := MissingVersion{Node: e.coord, Dependency: p.dep.Target, List: p.list, Profile: p.dep.Profile}
			r.result.Missing = append(r.result.Missing, miss)
			observability.Resolve().OnMissingVersion(r.ctx, e.coord.String(), p.dep.Target.GA())
			r.log.Warnf("no version for %s in %s of %s", p.dep.Target.GA(), p.list, e.coord)
		}
	}
	slices.SortStableFunc(r.result.Missing, func(a, b MissingVersion) int {
		return cmp.Or(cmp.Compare(a.Node.Key(), b.Node.Key()), cmp.Compare(a.Dependency.GA(), b.Dependency.GA()))
	})
	e.state = artifact.StateDependenciesResolved
}

func (r *run) searchManagement(start string, pending map[string][]pendingEdge) {
	var queue deque[string]
	queue.pushBack(start)
	visited := make(map[string]bool)

	for queue.len() > 0 && len(pending) > 0 {
		key := queue.popFront()
		if visited[key] {
			continue
		}
		visited[key] = true

		e := r.searchEntry(key)
		if e == nil {
			continue
		}
		if key != start && e.node != nil && e.state < artifact.StateDependenciesResolved {
			r.resolveVersions(dependencyWork{key: key})
		}
		mgmt := sortedByPosition(r.management(e))

		var imports []string
		for _, m := range mgmt {
			if m.Scope == artifact.ScopeImport {
				imports = append(imports, parentCoord(m.Target).Key())
				continue
			}
			if m.MissingVersion() {
				continue
			}
			ga := m.Target.GA()
			if edges, ok := pending[ga]; ok {
				for _, p := range edges {
					p.dep.Target.Version = m.Target.Version
				}
				delete(pending, ga)
			}
		}

		if e.parent != nil {
			queue.pushBack(e.parent.Key())
		}
		for i := len(imports) - 1; i >= 0; i-- {
			queue.pushFront(imports[i])
		}
	}
}

// sortedByPosition orders unconditional entries before profile entries,
// each by position.
func sortedByPosition(deps []artifact.Dependency) []artifact.Dependency {
	out := slices.Clone(deps)
	slices.SortStableFunc(out, func(a, b artifact.Dependency) int {
		return cmp.Or(cmp.Compare(a.Profile, b.Profile), cmp.Compare(a.Position, b.Position))
	})
	return out
}
