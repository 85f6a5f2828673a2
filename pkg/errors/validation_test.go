package errors

import (
	"strings"
	"testing"
)

func TestValidateSchemaName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "BisCore", false},
		{"valid with digits", "Schema2", false},
		{"valid with dots", "My.Schema", false},
		{"empty", "", true},
		{"path traversal", "../etc/passwd", true},
		{"forward slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"null byte", "a\x00b", true},
		{"control character", "a\tb", true},
		{"too long", strings.Repeat("a", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemaName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchemaName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidKey) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidKey)
			}
		})
	}
}

func TestValidateSearchPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid absolute", "/opt/schemas", false},
		{"valid relative", "testdata/schemas", false},
		{"empty", "", true},
		{"null byte", "/opt\x00/schemas", true},
		{"too long", strings.Repeat("p", 501), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSearchPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSearchPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}
