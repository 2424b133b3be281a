package cache

// ScopedKeyer wraps a Keyer with a prefix for repository isolation.
// Responses from a private repository manager must not be served to a crawl
// that targets Maven Central, so each repository base URL gets its own
// prefix.
//
// Example usage:
//
//	// Keys for an internal Nexus
//	nexus := NewScopedKeyer(NewDefaultKeyer(), "repo:"+Hash([]byte(repoURL))[:12]+":")
//
//	// Global keys for Maven Central
//	central := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}
