// Package maven downloads POM files from Maven repositories.
//
// # Overview
//
// [Client] implements [manifest.Fetcher] against the standard repository
// layout used by Maven Central, Nexus and Artifactory:
//
//	<repo>/<group path>/<artifact>/<version>/<artifact>-<version>[-<classifier>].pom
//
// where the group path is the groupId with dots replaced by slashes. A
// file:// repository URL reads the same layout from disk, which makes a local
// ~/.m2/repository usable without network access.
//
// # Usage
//
//	client := maven.NewClient(fileCache, cache.TTLManifest)
//	m, err := client.Fetch(ctx, manifest.Request{
//	    Group:    "com.google.guava",
//	    Artifact: "guava",
//	    Version:  "32.1.3-jre",
//	    RepoURL:  maven.CentralURL,
//	})
//
// # Caching
//
// Raw POM bytes are cached per repository: each base URL gets its own
// [cache.ScopedKeyer] prefix so a private repository never serves entries
// fetched from another. Set Refresh to bypass cached entries.
package maven
