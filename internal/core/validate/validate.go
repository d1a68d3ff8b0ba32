// Package validate provides shared validation functions.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identifier validates that name can be used as a Python identifier.
func Identifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is required")
	}
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%q is not a valid identifier", name)
	}
	return nil
}

// Escape validates an overlay escape string. Escapes that could appear in
// ordinary source text make markers ambiguous; quotes and backslashes break
// the Vim syntax rules built from them.
func Escape(escape string) error {
	if escape == "" {
		return fmt.Errorf("escape is required")
	}
	if strings.ContainsAny(escape, `"'\`) {
		return fmt.Errorf("must not contain quotes or backslashes")
	}
	if strings.Contains(escape, "jedi") {
		return fmt.Errorf("must not contain %q", "jedi")
	}
	for _, r := range escape {
		if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return fmt.Errorf("must not contain letters, digits, or whitespace")
		}
	}
	return nil
}
