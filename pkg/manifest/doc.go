// Package manifest describes Maven build descriptors as the resolver sees them.
//
// # Overview
//
// A [Manifest] is the parsed form of one POM: its own coordinates, an
// optional parent reference, the property table and the ordered dependency
// and dependency-management lists. Values are kept verbatim; property
// placeholders such as "${guava.version}" are left for the resolver to
// substitute against the inheritance chain.
//
// # Fetching
//
// The resolver only depends on the [Fetcher] interface. The production
// implementation downloads POMs from a Maven repository
// (see [github.com/matzehuels/pomgraph/pkg/integrations/maven]); [MapFetcher]
// serves manifests from memory for tests and offline fixtures.
//
// # Parsing
//
// [ParsePOM] decodes pom.xml bytes. It understands parent inheritance of
// groupId and version, arbitrary <properties> elements, <dependencyManagement>
// and <profiles>. Dependencies declared inside a profile are tagged with the
// profile id.
package manifest
