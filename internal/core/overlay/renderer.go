package overlay

import "fmt"

// LineAccessor reads and writes displayed lines by 1-indexed row.
type LineAccessor interface {
	Line(row int) (string, error)
	SetLine(row int, text string) error
}

// State is what a render must remember to undo itself.
type State struct {
	Row      int
	Original string
	Start    int
	End      int

	lines LineAccessor
}

// Renderer overlays at most one signature hint at a time. It is not safe for
// concurrent use; callers own one Renderer per editor session.
type Renderer struct {
	escape  string
	pending *State
}

// NewRenderer returns a Renderer that delimits markers with escape.
func NewRenderer(escape string) *Renderer {
	if escape == "" {
		escape = DefaultEscape
	}
	return &Renderer{escape: escape}
}

// Escape returns the marker delimiter.
func (r *Renderer) Escape() string { return r.escape }

// Pending returns the overlay that the next Restore would undo.
func (r *Renderer) Pending() (State, bool) {
	if r.pending == nil {
		return State{}, false
	}
	return *r.pending, true
}

// Render restores any previous overlay, then overlays sig onto the line
// above its opening bracket. A nil sig only restores.
//
// Unrenderable geometry and unreadable rows are no-ops and report false.
// An error is returned only when writing to lines fails; the display is then
// left as it was before the call.
func (r *Renderer) Render(lines LineAccessor, sig *Signature) (bool, error) {
	if _, err := r.Restore(); err != nil {
		return false, err
	}

	if sig == nil || lines == nil {
		return false, nil
	}

	if sig.Column < 2 || sig.Row <= 0 {
		return false, nil
	}

	row := sig.Row - 1
	line, err := lines.Line(row)
	if err != nil {
		return false, nil
	}

	sp := Compose(line, sig.Column-2, sig.Hint(), r.escape)
	if err := lines.SetLine(row, sp.Text); err != nil {
		return false, fmt.Errorf("overlay row %d: %w", row, err)
	}

	r.pending = &State{
		Row:      row,
		Original: line,
		Start:    sp.Start,
		End:      sp.End,
		lines:    lines,
	}

	return true, nil
}

// Restore writes the original text back over the pending overlay. It reports
// false when nothing was pending. A failed write keeps the overlay pending so
// the next call retries.
func (r *Renderer) Restore() (bool, error) {
	if r.pending == nil {
		return false, nil
	}

	p := r.pending
	if err := p.lines.SetLine(p.Row, p.Original); err != nil {
		return false, fmt.Errorf("restore row %d: %w", p.Row, err)
	}

	r.pending = nil
	return true, nil
}

// Forget drops the pending overlay without touching the display, for hosts
// that discarded the buffer the overlay lived in.
func (r *Renderer) Forget() {
	r.pending = nil
}
