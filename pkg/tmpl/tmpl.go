// Package tmpl provides template rendering for generated Vim script.
package tmpl

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// vimQuote returns s as a single-quoted Vim string literal. Single quotes
// are doubled; nothing else needs escaping.
func vimQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// vimPattern escapes s for literal use inside a magic Vim pattern delimited
// by slashes.
func vimPattern(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\/.*[]~^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var funcs = template.FuncMap{
	"vimq":   vimQuote,
	"vimpat": vimPattern,
	"join":   strings.Join,
}

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
//
// Available template functions:
//   - vimq: Quote a string as a single-quoted Vim literal
//   - vimpat: Escape a string for literal use in a Vim pattern
//   - join: Join string slice with separator (e.g., join .Args " ")
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Funcs(funcs).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
