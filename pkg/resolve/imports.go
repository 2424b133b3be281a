package resolve

import "github.com/matzehuels/pomgraph/pkg/artifact"

// expandImports is the import phase. It enqueues one import target at a
// time and re-queues the rest of the walk at the head of the import queue,
// so the target's fetch, properties and imports settle before the next
// target is considered. The target's dependency phase runs on demand when
// the importer first searches its management.
func (r *run) expandImports(w importWork) {
	e := r.arena[w.key]
	mgmt := e.node.Management
	for i := w.next; i < len(mgmt); i++ {
		d := mgmt[i]
		if d.Scope != artifact.ScopeImport {
			continue
		}
		target := parentCoord(d.Target)
		r.work.imports.pushFront(importWork{key: w.key, next: i + 1})
		r.work.nodes.pushBack(nodeWork{coord: target, top: target.Key()})
		return
	}
	e.state = artifact.StateImportsExpanded
	r.work.deps.pushBack(dependencyWork{key: w.key})
}
