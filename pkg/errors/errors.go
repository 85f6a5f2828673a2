// Package errors provides structured error types for the schemaloc resolution engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, HTTP API, and library surface
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Malformed input (documents, keys, paths)
//   - UNABLE_TO_*: Resolution failures
//   - INTERNAL_*: Unexpected internal errors
//
// Note that an absent schema is not an error: resolution surfaces absence as
// a soft not-found result. Errors are reserved for malformed documents and
// references that were declared but cannot be satisfied.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidSchemaJSON, "missing name attribute in %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidSchemaJSON) {
//	    // Handle malformed document
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidSchemaXML, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Malformed input errors
	ErrCodeInvalidSchemaJSON Code = "INVALID_SCHEMA_JSON"
	ErrCodeInvalidSchemaXML  Code = "INVALID_SCHEMA_XML"
	ErrCodeInvalidKey        Code = "INVALID_KEY"
	ErrCodeInvalidVersion    Code = "INVALID_VERSION"
	ErrCodeInvalidMatchType  Code = "INVALID_MATCH_TYPE"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resolution errors
	ErrCodeUnableToLocateSchema Code = "UNABLE_TO_LOCATE_SCHEMA"
	ErrCodeReferenceCycle       Code = "REFERENCE_CYCLE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
