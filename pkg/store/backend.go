package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/matzehuels/pomgraph/pkg/artifact"
)

// EdgeKind is a relationship type in the graph store.
type EdgeKind string

const (
	EdgeParent    EdgeKind = "PARENT"
	EdgeDependsOn EdgeKind = "DEPENDS_ON"
	EdgeManages   EdgeKind = "MANAGES"
	EdgeImports   EdgeKind = "IMPORTS"
)

// NodeRecord is the stored form of a node. Properties holds the property map
// serialized as a JSON object.
type NodeRecord struct {
	Group        string              `json:"groupId" bson:"group"`
	Artifact     string              `json:"artifactId" bson:"artifact"`
	Version      string              `json:"version" bson:"version"`
	Classifier   string              `json:"classifier" bson:"classifier"`
	Packaging    string              `json:"packaging" bson:"packaging"`
	Resolution   artifact.Resolution `json:"resolution" bson:"resolution"`
	CrawlVersion string              `json:"crawlVersion" bson:"crawl_version"`
	RepoURL      string              `json:"repoUrl" bson:"repo_url"`
	Properties   string              `json:"properties" bson:"properties"`
}

// Coordinate returns the record's identity.
func (r NodeRecord) Coordinate() artifact.Coordinate {
	return artifact.Coordinate{
		Group:      r.Group,
		Artifact:   r.Artifact,
		Version:    r.Version,
		Classifier: r.Classifier,
		Packaging:  r.Packaging,
	}
}

// Key returns the identity key of the record.
func (r NodeRecord) Key() string { return r.Coordinate().Key() }

// EdgeRecord is the stored form of a relationship. Src and Dst are identity
// keys; Target repeats the destination's identity so edges can be read
// without a join.
type EdgeRecord struct {
	Kind       EdgeKind             `json:"kind" bson:"kind"`
	Src        string               `json:"src" bson:"src"`
	Dst        string               `json:"dst" bson:"dst"`
	Target     artifact.Coordinate  `json:"target" bson:"target"`
	Scope      artifact.Scope       `json:"scope,omitempty" bson:"scope,omitempty"`
	Optional   bool                 `json:"optional,omitempty" bson:"optional,omitempty"`
	Profile    string               `json:"profile,omitempty" bson:"profile"`
	Type       string               `json:"type,omitempty" bson:"type,omitempty"`
	Classifier string               `json:"classifier,omitempty" bson:"classifier,omitempty"`
	Position   int                  `json:"position" bson:"position"`
	Exclusions []artifact.Exclusion `json:"exclusions,omitempty" bson:"exclusions,omitempty"`
}

// ID returns the edge's unique identifier. A child has at most one PARENT
// edge; list edges are unique per (source, list, profile, position).
func (e EdgeRecord) ID() string {
	switch e.Kind {
	case EdgeParent:
		return "parent|" + e.Dst
	case EdgeDependsOn:
		return "dep|" + e.Src + "|" + e.Profile + "|" + strconv.Itoa(e.Position)
	default:
		return "mgmt|" + e.Src + "|" + e.Profile + "|" + strconv.Itoa(e.Position)
	}
}

// Dependency converts a list edge back into a dependency.
func (e EdgeRecord) Dependency() artifact.Dependency {
	return artifact.Dependency{
		Target:     e.Target,
		Scope:      e.Scope,
		Optional:   e.Optional,
		Profile:    e.Profile,
		Type:       e.Type,
		Classifier: e.Classifier,
		Position:   e.Position,
		Exclusions: e.Exclusions,
	}
}

// Batch is one node write: node merges followed by edge upserts. When
// Replace is set, the outgoing list edges and the incoming PARENT edge of
// that node are dropped before Edges are written.
type Batch struct {
	Nodes   []NodeRecord
	Edges   []EdgeRecord
	Replace string
}

// Backend is the wire contract of a graph store.
type Backend interface {
	// EnsureSchema creates the identity uniqueness constraint and indexes.
	EnsureSchema(ctx context.Context) error

	// FindNode returns the node with the given identity key, or nil.
	FindNode(ctx context.Context, key string) (*NodeRecord, error)

	// FindParent returns the source of the PARENT edge into key, or nil.
	FindParent(ctx context.Context, key string) (*NodeRecord, error)

	// FindEdges returns the outgoing edges of key with one of the kinds.
	FindEdges(ctx context.Context, key string, kinds ...EdgeKind) ([]EdgeRecord, error)

	// Apply merges the batch. Each node merge is create-or-match on
	// identity and overwrites stored fields only when the incoming record
	// is FULL.
	Apply(ctx context.Context, b Batch) error

	Close(ctx context.Context) error
}

// SortEdges orders edges by profile then position.
func SortEdges(edges []EdgeRecord) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Profile != edges[j].Profile {
			return edges[i].Profile < edges[j].Profile
		}
		return edges[i].Position < edges[j].Position
	})
}

func recordOf(n *artifact.Node) (NodeRecord, error) {
	c := n.Coordinate.Normalize()
	props := "{}"
	if len(n.Properties) > 0 {
		data, err := json.Marshal(n.Properties)
		if err != nil {
			return NodeRecord{}, err
		}
		props = string(data)
	}
	res := n.Resolution
	if res == "" {
		res = artifact.Dangling
	}
	return NodeRecord{
		Group:        c.Group,
		Artifact:     c.Artifact,
		Version:      c.Version,
		Classifier:   c.Classifier,
		Packaging:    c.Packaging,
		Resolution:   res,
		CrawlVersion: n.CrawlVersion,
		RepoURL:      n.RepoURL,
		Properties:   props,
	}, nil
}

func danglingRecord(c artifact.Coordinate) NodeRecord {
	c = c.Normalize()
	return NodeRecord{
		Group:      c.Group,
		Artifact:   c.Artifact,
		Version:    c.Version,
		Classifier: c.Classifier,
		Packaging:  c.Packaging,
		Resolution: artifact.Dangling,
		Properties: "{}",
	}
}

func nodeOf(r *NodeRecord) (*artifact.Node, error) {
	n := &artifact.Node{
		Coordinate:   r.Coordinate(),
		Resolution:   r.Resolution,
		CrawlVersion: r.CrawlVersion,
		RepoURL:      r.RepoURL,
	}
	if r.Properties != "" && r.Properties != "{}" {
		if err := json.Unmarshal([]byte(r.Properties), &n.Properties); err != nil {
			return nil, err
		}
	}
	return n, nil
}
