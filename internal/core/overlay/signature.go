// Package overlay splices call-signature hints into displayed lines and
// restores them afterwards.
//
// The splice is plain text: the hint overwrites part of the line above the
// call and the overwritten text is kept inside an escape-delimited marker so
// the line can be restored either from the recorded State or from the text
// alone (see Strip).
package overlay

import "strings"

// NoIndex marks a signature whose active parameter could not be determined.
const NoIndex = -1

// DefaultEscape is the marker delimiter used when none is configured.
const DefaultEscape = "≡"

// Signature describes the call the cursor is inside.
type Signature struct {
	// Name is the callee as written at the call site.
	Name string `json:"name,omitempty"`
	// Row is the 1-indexed row of the opening bracket.
	Row int `json:"row"`
	// Column is the 0-indexed byte column of the opening bracket.
	Column int `json:"column"`
	// Params holds parameter source snippets in declaration order.
	Params []string `json:"params"`
	// Index is the active parameter or NoIndex.
	Index int `json:"index"`
}

// Active reports whether Index points at one of Params.
func (s *Signature) Active() bool {
	return s.Index >= 0 && s.Index < len(s.Params)
}

// Hint returns the parameter list as displayed, with the active parameter
// wrapped in bold markers.
func (s *Signature) Hint() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = strings.NewReplacer("\r", "", "\n", "").Replace(p)
	}

	if s.Active() {
		params[s.Index] = "*" + params[s.Index] + "*"
	}

	return " (" + strings.Join(params, ", ") + ") "
}
