// Package store persists resolved package graphs.
//
// # Overview
//
// The [Gateway] is the only component that talks to the graph store. It
// offers exact-identity reads that return lazy [Proxy] nodes, an idempotent
// [Gateway.SaveOrMerge] upsert guarded by the [Check] sanity check, and the
// [Gateway.ContainsUpToDate] staleness probe workers use to skip seeds.
//
// # Logical Schema
//
// One node label keyed by (group, artifact, version, classifier, packaging)
// carries the identity and scalar fields; the property map is flattened to a
// JSON blob because not every store supports nested values and Maven
// property names contain dots. Relationships are:
//
//   - PARENT: parent → child
//   - DEPENDS_ON: node → dependency target
//   - MANAGES / IMPORTS: node → dependency-management target (IMPORTS when
//     the entry has import scope)
//
// # Backends
//
// A [Backend] implements the wire contract. Two are provided:
// [github.com/matzehuels/pomgraph/pkg/store/memory] for tests and single-shot
// CLI runs, and [github.com/matzehuels/pomgraph/pkg/store/mongo] for shared
// deployments. Backends must merge nodes atomically per identity: a FULL
// write overwrites, a DANGLING write only creates. Concurrent workers rely on
// that primitive alone; the gateway takes no cross-process locks.
package store
