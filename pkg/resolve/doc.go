// Package resolve turns one Maven package identifier into the closed set of
// resolved package nodes its build metadata implies.
//
// # Overview
//
// A [Resolver] fetches the seed's POM, follows parent inheritance and import
// BOMs, substitutes ${...} property placeholders, and fills in missing
// dependency versions from dependency management. The nodes it returns
// carry their full in-memory dependency and management lists, ready to be
// written through [github.com/matzehuels/pomgraph/pkg/store.Gateway].
//
// # Worklist
//
// Resolution is a fixpoint over four queues, one per phase:
//
//  1. Node (FIFO): adopt an up-to-date node from the store or fetch its
//     manifest; always enqueue the parent.
//  2. Property (LIFO): substitute placeholders along the top-level node's
//     ancestor chain.
//  3. Import: expand import-scoped management entries one at a time.
//  4. Dependency: find versions for dependencies that omit one.
//
// The loop always serves the lowest non-empty phase, so work re-entering an
// earlier phase (an import that needs fetching, a property that resolves to
// another placeholder) runs to a fixpoint before a later phase resumes.
//
// # Errors
//
// A blank repository URL is a CONFIGURATION_ERROR. Failing to fetch the seed
// is a FETCH_ERROR; failing to fetch an ancestor or import only leaves that
// node DANGLING. A placeholder that survives the whole ancestor walk is an
// UNRESOLVED_PROPERTY error. Dependencies still missing a version at the end
// are reported in [Result.Missing] and never fail the run.
//
// One Resolve call is single-threaded. A Resolver may be shared by
// goroutines; each call owns its own worklist and arena.
package resolve
