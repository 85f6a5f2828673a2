package errors

import (
	"strings"
	"unicode"
)

// ValidateSchemaName validates a requested schema name for safety and
// correctness before any filesystem lookup happens. It rejects names that
// could be used for path traversal.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//
// Format-specific header validation is done separately by the format adapters.
func ValidateSchemaName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidKey, "schema name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidKey, "schema name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "schema name contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidKey, "schema name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateSearchPath validates a search path registered on a locater.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateSearchPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "search path cannot be empty")
	}

	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "search path too long (max 500 characters)")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "search path contains invalid control characters")
		}
	}

	if strings.Contains(path, "\x00") {
		return New(ErrCodeInvalidPath, "search path contains null byte")
	}

	return nil
}
