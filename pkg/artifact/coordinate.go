package artifact

import (
	"fmt"
	"strings"
)

const (
	// NullClassifier is stored in place of an absent classifier.
	NullClassifier = "null"

	// DefaultPackaging is the packaging of a coordinate that does not name one.
	DefaultPackaging = "jar"

	// PomPackaging is the packaging required of parents and imported BOMs.
	PomPackaging = "pom"
)

// Coordinate is the full identity of a package.
type Coordinate struct {
	Group      string `json:"groupId"`
	Artifact   string `json:"artifactId"`
	Version    string `json:"version"`
	Classifier string `json:"classifier"`
	Packaging  string `json:"packaging"`
}

// Normalize returns a copy with the classifier and packaging defaults applied.
// Surrounding whitespace is trimmed from every field.
func (c Coordinate) Normalize() Coordinate {
	c.Group = strings.TrimSpace(c.Group)
	c.Artifact = strings.TrimSpace(c.Artifact)
	c.Version = strings.TrimSpace(c.Version)
	c.Classifier = strings.TrimSpace(c.Classifier)
	c.Packaging = strings.TrimSpace(c.Packaging)
	if c.Classifier == "" {
		c.Classifier = NullClassifier
	}
	if c.Packaging == "" {
		c.Packaging = DefaultPackaging
	}
	return c
}

// Key returns "group:artifact:version:classifier:packaging" for the
// normalized coordinate.
func (c Coordinate) Key() string {
	n := c.Normalize()
	return n.Group + ":" + n.Artifact + ":" + n.Version + ":" + n.Classifier + ":" + n.Packaging
}

// GA returns "group:artifact", the key dependency management matches on.
func (c Coordinate) GA() string {
	return c.Group + ":" + c.Artifact
}

// HasClassifier reports whether the coordinate names a real classifier.
func (c Coordinate) HasClassifier() bool {
	return c.Classifier != "" && c.Classifier != NullClassifier
}

// String renders the coordinate in Maven's
// group:artifact[:packaging[:classifier]]:version form.
// The default packaging and the null classifier are omitted.
func (c Coordinate) String() string {
	n := c.Normalize()
	parts := []string{n.Group, n.Artifact}
	switch {
	case n.HasClassifier():
		parts = append(parts, n.Packaging, n.Classifier)
	case n.Packaging != DefaultPackaging:
		parts = append(parts, n.Packaging)
	}
	return strings.Join(append(parts, n.Version), ":")
}

// WithVersion returns a copy of c with the version replaced.
func (c Coordinate) WithVersion(v string) Coordinate {
	c.Version = v
	return c
}

// ParseCoordinate parses group:artifact:version,
// group:artifact:packaging:version or
// group:artifact:packaging:classifier:version. The result is normalized.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	var c Coordinate
	switch len(parts) {
	case 3:
		c = Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2]}
	case 4:
		c = Coordinate{Group: parts[0], Artifact: parts[1], Packaging: parts[2], Version: parts[3]}
	case 5:
		c = Coordinate{Group: parts[0], Artifact: parts[1], Packaging: parts[2], Classifier: parts[3], Version: parts[4]}
	default:
		return Coordinate{}, fmt.Errorf("invalid coordinate %q (expected group:artifact[:packaging[:classifier]]:version)", s)
	}
	c = c.Normalize()
	if c.Group == "" || c.Artifact == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("invalid coordinate %q: group, artifact and version are required", s)
	}
	return c, nil
}

// ParseKey is the inverse of [Coordinate.Key].
func ParseKey(key string) (Coordinate, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 5 {
		return Coordinate{}, fmt.Errorf("invalid node key %q", key)
	}
	return Coordinate{
		Group:      parts[0],
		Artifact:   parts[1],
		Version:    parts[2],
		Classifier: parts[3],
		Packaging:  parts[4],
	}, nil
}
