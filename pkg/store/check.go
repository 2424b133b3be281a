package store

import (
	"sort"
	"strings"

	"github.com/matzehuels/pomgraph/pkg/artifact"
	"github.com/matzehuels/pomgraph/pkg/errors"
)

// Check runs the sanity check that guards every write. It returns an
// *errors.ValidationError listing every violation, or nil.
//
// The rules: the parent must have pom packaging; every edge's type and
// classifier must equal the target's packaging and classifier; import scope
// is only legal in dependency management, on pom edges to pom targets;
// positions form 0..n-1 per (list, profile); every coordinate reachable from
// the write has a non-blank group, artifact and version free of
// placeholders.
func Check(n *artifact.Node) error {
	v := &errors.ValidationError{}
	self := n.Coordinate.Key()

	checkGAV(v, self, "self", n.Coordinate)
	if p := n.Parent; p != nil {
		checkGAV(v, self, "parent", *p)
		if pk := p.Normalize().Packaging; pk != artifact.PomPackaging {
			v.Add(self, "parent", "parent %s has packaging %q, want %q", p.GA(), pk, artifact.PomPackaging)
		}
	}

	checkList(v, self, "dependencies", n.Dependencies, false)
	checkList(v, self, "management", n.Management, true)
	return v.Err()
}

func checkList(v *errors.ValidationError, self, list string, deps []artifact.Dependency, management bool) {
	byProfile := make(map[string][]int)
	for i, d := range deps {
		field := list + "[" + d.Target.GA() + "]"
		checkGAV(v, self, field, d.Target)

		target := d.Target.Normalize()
		if typ := orDefault(d.Type, artifact.DefaultPackaging); typ != target.Packaging {
			v.Add(self, field, "edge type %q does not match target packaging %q", typ, target.Packaging)
		}
		if cl := orDefault(d.Classifier, artifact.NullClassifier); cl != target.Classifier {
			v.Add(self, field, "edge classifier %q does not match target classifier %q", cl, target.Classifier)
		}
		if d.Scope == artifact.ScopeImport {
			switch {
			case !management:
				v.Add(self, field, "import scope outside dependency management")
			case orDefault(d.Type, artifact.DefaultPackaging) != artifact.PomPackaging:
				v.Add(self, field, "import edge has type %q, want %q", d.Type, artifact.PomPackaging)
			case target.Packaging != artifact.PomPackaging:
				v.Add(self, field, "import target has packaging %q, want %q", target.Packaging, artifact.PomPackaging)
			}
		}
		byProfile[d.Profile] = append(byProfile[d.Profile], deps[i].Position)
	}

	profiles := make([]string, 0, len(byProfile))
	for p := range byProfile {
		profiles = append(profiles, p)
	}
	sort.Strings(profiles)
	for _, p := range profiles {
		positions := byProfile[p]
		sort.Ints(positions)
		for i, pos := range positions {
			if pos != i {
				v.Add(self, list, "positions in profile %q are not contiguous from 0: %v", p, positions)
				break
			}
		}
	}
}

func checkGAV(v *errors.ValidationError, self, field string, c artifact.Coordinate) {
	for _, part := range []struct{ name, value string }{
		{"groupId", c.Group},
		{"artifactId", c.Artifact},
		{"version", c.Version},
	} {
		switch {
		case strings.TrimSpace(part.value) == "":
			v.Add(self, field, "%s is blank", part.name)
		case strings.Contains(part.value, "${"):
			v.Add(self, field, "%s %q is an unresolved placeholder", part.name, part.value)
		}
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
