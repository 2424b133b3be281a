// Package pkg provides the core libraries for pomgraph, a Maven dependency
// graph resolver.
//
// # Overview
//
// pomgraph fetches Maven POM manifests, resolves everything needed to read
// them correctly (parent chains, properties, BOM imports, managed versions)
// and stores the result as a package graph. The pkg directory is organized
// into these areas:
//
//  1. [artifact] - Coordinates, nodes, dependencies and placeholder syntax
//  2. [manifest] - POM parsing and the fetcher contract
//  3. [resolve] - The worklist resolution engine
//  4. [store] - The graph store gateway, lazy proxies and the sanity check
//  5. [integrations] - Repository clients (Maven layout over HTTP or file://)
//  6. [cache] - File, Redis and null caches for fetched POMs
//  7. [render] - Graphviz export of stored subgraphs
//
// # Architecture
//
// The typical data flow:
//
//	Maven repository
//	         ↓
//	    [integrations/maven] (fetch + cache POM bytes)
//	         ↓
//	    [manifest] (parse POM)
//	         ↓
//	    [resolve] (ancestors, properties, imports, managed versions)
//	         ↓
//	    [store] (sanity check, merge into the graph)
//
// # Quick Start
//
//	fetcher := maven.NewClient(cache.NewNullCache(), 0)
//	gw := store.NewGateway(memory.New())
//	r := resolve.New(fetcher, gw, resolve.Options{CrawlVersion: "1"})
//
//	res, err := r.Resolve(ctx, resolve.Identifier{
//	    Coordinate: artifact.Coordinate{Group: "org.slf4j", Artifact: "slf4j-api", Version: "2.0.13"},
//	    RepoURL:    maven.CentralURL,
//	})
//	for _, n := range res.Nodes {
//	    if err := gw.SaveOrMerge(ctx, n); err != nil { ... }
//	}
//
// # Testing
//
//	go test ./...                        # Unit tests
//	go test -tags integration ./pkg/...  # Include MongoDB and Redis tests
//
// [artifact]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/artifact
// [manifest]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/manifest
// [resolve]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/resolve
// [store]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/store
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/integrations
// [cache]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/cache
// [render]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/render
//
// [integrations/maven]: https://pkg.go.dev/github.com/matzehuels/pomgraph/pkg/integrations/maven
package pkg
