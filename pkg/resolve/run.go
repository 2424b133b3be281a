package resolve

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pomgraph/pkg/artifact"
)

// entry is one node in the run's arena. Edges refer to other entries by
// identity key, never by pointer, so cycles need no special handling.
type entry struct {
	coord  artifact.Coordinate
	state  artifact.State
	rec    artifact.Record      // nil while DANGLING
	node   *artifact.Node       // set when fetched in this run
	parent *artifact.Coordinate // normalized, packaging pom
	top    string               // key of the node whose properties win
}

// Work items, one type per phase.
type (
	nodeWork struct {
		coord artifact.Coordinate
		top   string
	}
	propertyWork struct {
		key  string
		pass int
	}
	importWork struct {
		key  string
		next int
	}
	dependencyWork struct {
		key string
	}
)

type worklist struct {
	nodes   deque[nodeWork]       // FIFO
	props   deque[propertyWork]   // LIFO
	imports deque[importWork]     // continuation re-queued at the head
	deps    deque[dependencyWork] // FIFO
}

type run struct {
	*Resolver
	ctx     context.Context
	log     *log.Logger
	repoURL string
	seed    string
	arena   map[string]*entry
	work    worklist

	// resolving holds the nodes whose dependency phase is on the stack.
	resolving map[string]bool
	result    *Result
}

// drain seeds the worklist and serves the lowest non-empty phase until every
// queue is empty.
func (r *run) drain(seed artifact.Coordinate) error {
	r.work.nodes.pushBack(nodeWork{coord: seed, top: seed.Key()})
	for {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		var err error
		switch {
		case r.work.nodes.len() > 0:
			err = r.resolveNode(r.work.nodes.popFront())
		case r.work.props.len() > 0:
			err = r.resolveProperties(r.work.props.popBack())
		case r.work.imports.len() > 0:
			r.expandImports(r.work.imports.popFront())
		case r.work.deps.len() > 0:
			r.resolveVersions(r.work.deps.popFront())
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// parentCoord forces the pom packaging parents must have.
func parentCoord(c artifact.Coordinate) artifact.Coordinate {
	c.Packaging = artifact.PomPackaging
	c.Classifier = ""
	return c.Normalize()
}

// management returns an entry's dependency-management list, loading it
// from the store for adopted nodes.
func (r *run) management(e *entry) []artifact.Dependency {
	if e.node != nil {
		return e.node.Management
	}
	if e.rec == nil {
		return nil
	}
	mgmt, err := e.rec.LoadManagement(r.ctx)
	if err != nil {
		r.log.Warn("load management failed", "node", e.coord.String(), "err", err)
		return nil
	}
	return mgmt
}

// searchEntry returns the arena entry for key, adopting it from the store
// for read-only use when the run never reached it.
func (r *run) searchEntry(key string) *entry {
	if e, ok := r.arena[key]; ok {
		return e
	}
	if r.lookup == nil {
		return nil
	}
	c, err := artifact.ParseKey(key)
	if err != nil {
		return nil
	}
	rec, err := r.lookup.Lookup(r.ctx, c)
	if err != nil || rec == nil || !rec.Node().IsFull() {
		return nil
	}
	e := &entry{coord: c, state: artifact.StateDependenciesResolved, rec: rec}
	if p, err := rec.LoadParent(r.ctx); err == nil && p != nil {
		pc := parentCoord(*p)
		e.parent = &pc
	}
	r.arena[key] = e
	return e
}
