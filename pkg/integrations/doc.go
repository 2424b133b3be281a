// Package integrations provides the HTTP plumbing shared by repository clients.
//
// # Overview
//
// The only repository client today is [maven], which downloads POM files
// from a Maven repository layout. It builds on [Client], which adds:
//
//   - Response caching through any [cache.Cache] (file, Redis or none)
//   - Retry with exponential backoff for network errors and 5xx responses
//   - Default request headers
//   - HTTP observability hooks
//
// # Client Pattern
//
//	c := integrations.NewClient(fileCache, "maven", cache.TTLManifest, nil)
//	data, err := c.CachedBytes(ctx, key, refresh, func() ([]byte, error) {
//	    return c.GetBytes(ctx, url)
//	})
//
// # Errors
//
// Missing resources are reported as [ErrNotFound] and transport failures as
// [ErrNetwork]; both are the sentinels defined in package cache, so callers
// can test with errors.Is without importing this package.
package integrations
