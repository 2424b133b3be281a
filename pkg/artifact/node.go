package artifact

import (
	"context"
	"strings"
)

// Resolution marks how much of a node is known.
type Resolution string

const (
	// Dangling nodes are known by identity only; their manifest was never fetched.
	Dangling Resolution = "DANGLING"
	// Full nodes have a fetched manifest with properties and dependencies resolved.
	Full Resolution = "FULL"
)

// Scope is the lifecycle context of a dependency.
type Scope string

const (
	ScopeCompile  Scope = "COMPILE"
	ScopeProvided Scope = "PROVIDED"
	ScopeRuntime  Scope = "RUNTIME"
	ScopeTest     Scope = "TEST"
	ScopeSystem   Scope = "SYSTEM"
	ScopeImport   Scope = "IMPORT" // only legal in dependency management
)

// ParseScope maps a manifest scope to a [Scope]. Unknown or empty values
// default to [ScopeCompile].
func ParseScope(s string) Scope {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PROVIDED":
		return ScopeProvided
	case "RUNTIME":
		return ScopeRuntime
	case "TEST":
		return ScopeTest
	case "SYSTEM":
		return ScopeSystem
	case "IMPORT":
		return ScopeImport
	default:
		return ScopeCompile
	}
}

// Exclusion is a group:artifact pair excluded from a dependency's subtree.
// The resolver carries it through without interpreting it.
type Exclusion struct {
	Group    string `json:"groupId"`
	Artifact string `json:"artifactId"`
}

// Dependency is one entry of a dependency or dependency-management list.
type Dependency struct {
	Target     Coordinate  `json:"target"`
	Scope      Scope       `json:"scope"`
	Optional   bool        `json:"optional,omitempty"`
	Profile    string      `json:"profile,omitempty"`
	Type       string      `json:"type"`
	Classifier string      `json:"classifier"`
	Position   int         `json:"position"`
	Exclusions []Exclusion `json:"exclusions,omitempty"`
}

// MissingVersion reports whether the target version is entirely absent.
// A placeholder is not missing; it is unresolved.
func (d Dependency) MissingVersion() bool {
	return strings.TrimSpace(d.Target.Version) == ""
}

// Node is one resolved or partially-resolved package.
type Node struct {
	Coordinate
	Resolution   Resolution        `json:"resolution"`
	CrawlVersion string            `json:"crawlVersion,omitempty"`
	RepoURL      string            `json:"repoUrl,omitempty"`
	Properties   map[string]string `json:"properties,omitempty"`
	Parent       *Coordinate       `json:"parent,omitempty"`
	Dependencies []Dependency      `json:"dependencies,omitempty"`
	Management   []Dependency      `json:"management,omitempty"`
}

// NewDangling returns a DANGLING node for c.
func NewDangling(c Coordinate) *Node {
	return &Node{Coordinate: c.Normalize(), Resolution: Dangling}
}

// IsFull reports whether the node is fully resolved.
func (n *Node) IsFull() bool { return n.Resolution == Full }

// Node returns n. It makes *Node satisfy [Record].
func (n *Node) Node() *Node { return n }

// Proxied reports false: a plain node holds everything in memory.
func (n *Node) Proxied() bool { return false }

// LoadParent returns the in-memory parent reference.
func (n *Node) LoadParent(context.Context) (*Coordinate, error) { return n.Parent, nil }

// LoadDependencies returns the in-memory dependency list.
func (n *Node) LoadDependencies(context.Context) ([]Dependency, error) { return n.Dependencies, nil }

// LoadManagement returns the in-memory dependency-management list.
func (n *Node) LoadManagement(context.Context) ([]Dependency, error) { return n.Management, nil }

// Record is a package node whose relationships may live outside memory.
//
// Node returns the scalar view (identity, marker, crawl version, properties).
// For store-backed records its relationship fields are not populated; use the
// Load methods, which may query the store on first call.
type Record interface {
	Node() *Node
	Proxied() bool
	LoadParent(ctx context.Context) (*Coordinate, error)
	LoadDependencies(ctx context.Context) ([]Dependency, error)
	LoadManagement(ctx context.Context) ([]Dependency, error)
}

// Materialize loads every relationship of r into a standalone *Node.
func Materialize(ctx context.Context, r Record) (*Node, error) {
	if !r.Proxied() {
		return r.Node(), nil
	}
	n := *r.Node()
	var err error
	if n.Parent, err = r.LoadParent(ctx); err != nil {
		return nil, err
	}
	if n.Dependencies, err = r.LoadDependencies(ctx); err != nil {
		return nil, err
	}
	if n.Management, err = r.LoadManagement(ctx); err != nil {
		return nil, err
	}
	return &n, nil
}

// State is a node's position in one resolution run.
type State int

const (
	StateUnseen State = iota
	StateDangling
	StateFetching
	StateFull
	StatePropertiesResolved
	StateImportsExpanded
	StateDependenciesResolved
)

var stateNames = [...]string{
	"UNSEEN",
	"DANGLING",
	"FETCHING",
	"FULL",
	"PROPERTIES_RESOLVED",
	"IMPORTS_EXPANDED",
	"DEPENDENCIES_RESOLVED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}
