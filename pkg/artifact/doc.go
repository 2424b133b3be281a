// Package artifact defines the package graph data model shared by the
// resolver and the graph store.
//
// # Identity
//
// A [Coordinate] identifies one Maven package by group, artifact, version,
// classifier and packaging. The store cannot represent absent values, so the
// classifier defaults to the sentinel [NullClassifier] and the packaging to
// "jar" (see [Coordinate.Normalize]). [Coordinate.Key] renders the identity
// used both as arena key during resolution and as the store's primary key.
//
// # Nodes and edges
//
// A [Node] carries the resolution marker ([Dangling] or [Full]), the crawl
// version used for staleness checks, the inherited property table and three
// relationships: an optional parent, the ordered direct dependencies and the
// ordered dependency-management entries. Edges ([Dependency]) hold the target
// coordinate by value rather than a pointer to the target node, so a package
// that depends on itself or on one of its ancestors never forms a reference
// cycle in memory.
//
// # Records
//
// [Record] is the read surface shared by a plain *Node (everything in
// memory) and store-backed proxies whose relationships are loaded on first
// access. The resolver only ever walks relationships through a Record.
//
// # Placeholders
//
// Maven property references ("${name}") are recognised by [IsPlaceholder]
// and [HasPlaceholder] and substituted by [Interpolate].
package artifact
