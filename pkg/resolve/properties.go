package resolve

import (
	"strings"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

// resolveProperties is the property phase. One pass substitutes every
// placeholder in the node's edges once; values that expand to further
// placeholders re-queue the node for another pass.
func (r *run) resolveProperties(w propertyWork) error {
	e := r.arena[w.key]
	n := e.node
	lookup := r.properties(e.top)

	again := false
	for _, list := range []struct {
		name string
		deps []artifact.Dependency
	}{
		{"dependencies", n.Dependencies},
		{"management", n.Management},
	} {
		for i := range list.deps {
			d := &list.deps[i]
			fields := []*string{&d.Target.Group, &d.Target.Artifact, &d.Target.Version, &d.Target.Classifier, &d.Target.Packaging}
			for _, f := range fields {
				if !strings.Contains(*f, "${") {
					continue
				}
				out, unresolved := artifact.Interpolate(*f, lookup)
				if len(unresolved) > 0 {
					return errors.New(errors.ErrCodeUnresolvedProperty,
						"%s: property ${%s} in %s %s is not defined along the ancestor chain of %s",
						e.coord, unresolved[0], list.name, d.Target.GA(), r.arena[e.top].coord)
				}
				*f = out
				switch {
				case artifact.HasPlaceholder(out):
					again = true
				case strings.Contains(out, "${"):
					return errors.New(errors.ErrCodeUnresolvedProperty,
						"%s: malformed property reference %q in %s %s", e.coord, out, list.name, d.Target.GA())
				}
			}
			d.Target = d.Target.Normalize()
			d.Type, d.Classifier = d.Target.Packaging, d.Target.Classifier
		}
	}

	if again {
		if w.pass+1 >= r.opts.MaxPropertyPasses {
			return errors.New(errors.ErrCodeUnresolvedProperty,
				"%s: placeholders still unresolved after %d passes (cyclic property definitions?)", e.coord, w.pass+1)
		}
		r.work.props.pushBack(propertyWork{key: w.key, pass: w.pass + 1})
		return nil
	}

	e.state = artifact.StatePropertiesResolved
	r.work.imports.pushBack(importWork{key: w.key})
	return nil
}

// properties returns a lookup over the top-level node's built-ins, then the
// property tables along its ancestor chain, nearest first.
func (r *run) properties(top string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		t := r.arena[top]
		if t == nil {
			return "", false
		}
		if v, ok := builtin(t, name); ok {
			return v, true
		}
		seen := make(map[string]bool)
		for e := t; e != nil && !seen[e.coord.Key()]; {
			seen[e.coord.Key()] = true
			if e.rec != nil {
				if v, ok := e.rec.Node().Properties[name]; ok {
					return v, true
				}
			}
			if e.parent == nil {
				break
			}
			e = r.arena[e.parent.Key()]
		}
		return "", false
	}
}

// builtin resolves the project model references Maven defines for every
// project. They always refer to the top-level node.
func builtin(t *entry, name string) (string, bool) {
	name = strings.TrimPrefix(name, "project.")
	name = strings.TrimPrefix(name, "pom.")
	switch name {
	case "version":
		return t.coord.Version, true
	case "groupId":
		return t.coord.Group, true
	case "artifactId":
		return t.coord.Artifact, true
	case "packaging":
		return t.coord.Packaging, true
	}
	if t.parent == nil {
		return "", false
	}
	switch name {
	case "parent.version":
		return t.parent.Version, true
	case "parent.groupId":
		return t.parent.Group, true
	case "parent.artifactId":
		return t.parent.Artifact, true
	}
	return "", false
}
