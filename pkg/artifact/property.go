package artifact

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\$\{([^}]*)\}`)

// IsPlaceholder reports whether s starts with a property reference.
func IsPlaceholder(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "${")
}

// HasPlaceholder reports whether s contains a property reference anywhere.
func HasPlaceholder(s string) bool {
	return placeholderRe.MatchString(s)
}

// PropertyName returns the name inside a value that is exactly one
// reference ("${name}"), or false otherwise.
func PropertyName(s string) (string, bool) {
	m := placeholderRe.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return "", false
	}
	return s[m[2]:m[3]], true
}

// Interpolate replaces each "${name}" in s with lookup(name). References
// lookup cannot resolve are left untouched and returned in unresolved.
// Substituted values are not re-scanned; callers loop for indirection.
func Interpolate(s string, lookup func(name string) (string, bool)) (out string, unresolved []string) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	out = placeholderRe.ReplaceAllStringFunc(s, func(ref string) string {
		name := ref[2 : len(ref)-1]
		if v, ok := lookup(name); ok {
			return v
		}
		unresolved = append(unresolved, name)
		return ref
	})
	return out, unresolved
}
