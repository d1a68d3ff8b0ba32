package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "total", false},
		{"underscore prefix", "_private", false},
		{"dunder", "__init__", false},
		{"with digits", "x2", false},
		{"empty string", "", true},
		{"leading digit", "2x", true},
		{"dotted", "a.b", true},
		{"with spaces", "new name", true},
		{"hyphen", "new-name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Identifier(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Identifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"default", "≡", false},
		{"multi rune", "§§", false},
		{"empty string", "", true},
		{"double quote", `"`, true},
		{"single quote", "'", true},
		{"backslash", `\`, true},
		{"letters", "ab", true},
		{"digit", "1", true},
		{"space", " ", true},
		{"contains jedi", "≡jedi≡", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Escape(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "Escape(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		})
	}
}
