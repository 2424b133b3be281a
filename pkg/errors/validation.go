package errors

import (
	"fmt"
	"strings"
	"unicode"
)

// Violation is one failed invariant found by a validator.
type Violation struct {
	Node    string // Identity key of the offending node
	Field   string // Field or relationship that failed, e.g. "parent" or "dependencies[3]"
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%s: %s", v.Node, v.Message)
	}
	return fmt.Sprintf("%s %s: %s", v.Node, v.Field, v.Message)
}

// ValidationError aggregates every violation found while checking one write.
// A write that fails validation commits nothing.
type ValidationError struct {
	Violations []Violation
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", ErrCodeValidation, e.Violations[0])
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: %d violations: %s", ErrCodeValidation, len(e.Violations), strings.Join(parts, "; "))
}

// Add records a violation.
func (e *ValidationError) Add(node, field, format string, args ...any) {
	e.Violations = append(e.Violations, Violation{Node: node, Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns e if any violation was recorded, nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// ValidatePackageName validates a package name component for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks,
// since group and artifact ids end up in repository URL paths.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPackage, "package name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
		"/",    // Maven ids never contain slashes
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateCoordinate validates the group, artifact and version of a
// package identifier before it is used to build a repository URL.
func ValidateCoordinate(group, artifact, version string) error {
	for _, part := range []struct{ field, value string }{
		{"groupId", group},
		{"artifactId", artifact},
		{"version", version},
	} {
		if strings.TrimSpace(part.value) == "" {
			return New(ErrCodeInvalidCoordinate, "%s cannot be blank", part.field)
		}
		if strings.Contains(part.value, "${") {
			return New(ErrCodeInvalidCoordinate, "%s %q is an unresolved placeholder", part.field, part.value)
		}
		if err := ValidatePackageName(part.value); err != nil {
			return Wrap(ErrCodeInvalidCoordinate, err, "invalid %s", part.field)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
