// Package errors provides structured error types for pomgraph.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the worker and the API
//   - Machine-readable error codes for programmatic handling
//   - Per-identifier failure tracking in the crawl failure ledger
//
// # Error Codes
//
// Resolution failures carry one of the resolver codes:
//   - CONFIGURATION_ERROR: the call itself is malformed (missing repository URL)
//   - FETCH_ERROR: a manifest could not be downloaded or parsed
//   - UNRESOLVED_PROPERTY: a placeholder survived the full ancestor walk
//   - VALIDATION_ERROR: a node failed the pre-write sanity check
//   - MISSING_VERSION: a dependency kept no version after the management search
//
// The remaining codes follow the generic INVALID_* / NOT_FOUND_* / NETWORK_*
// convention.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConfiguration, "repository URL is required for %s", coord)
//	if errors.Is(err, errors.ErrCodeConfiguration) {
//	    // not retried
//	}
//
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "fetch %s", coord)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Resolution errors
	ErrCodeConfiguration      Code = "CONFIGURATION_ERROR"
	ErrCodeFetch              Code = "FETCH_ERROR"
	ErrCodeUnresolvedProperty Code = "UNRESOLVED_PROPERTY"
	ErrCodeValidation         Code = "VALIDATION_ERROR"
	ErrCodeMissingVersion     Code = "MISSING_VERSION"

	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidPackage    Code = "INVALID_PACKAGE"
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidManifest   Code = "INVALID_MANIFEST"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeNodeNotFound Code = "NODE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Store errors
	ErrCodeStore Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *ValidationError with
// a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return ErrCodeValidation
	}
	return ""
}

// As is [errors.As] from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}
