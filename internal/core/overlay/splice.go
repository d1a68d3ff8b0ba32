package overlay

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	quoteRun         = regexp.MustCompile(`\\*["']+`)
	trailingQuoteRun = regexp.MustCompile(`\\*["']+$`)
)

// Splice is one line with a hint overlaid.
type Splice struct {
	// Text is the line as it should be displayed.
	Text string
	// Start and End bound the original bytes the hint covers. Both are
	// clamped to the original line length.
	Start, End int
	// Carried holds the quote and escape runs repeated after the hint.
	Carried string
}

// Compose overlays hint onto line starting at insertColumn. The covered text
// is embedded in a marker delimited by escape so Strip can undo the edit.
func Compose(line string, insertColumn int, hint, escape string) Splice {
	if insertColumn < 0 {
		insertColumn = 0
	}

	if pad := insertColumn - len(line); pad > 0 {
		hint = strings.Repeat(" ", pad) + hint
	}

	// The bold markers take two columns that are not counted against the
	// covered text.
	endColumn := insertColumn + len(hint) - 2

	start := min(insertColumn, len(line))
	end := max(start, min(endColumn, len(line)))
	prefix, replaced, rest := line[:start], line[start:end], line[end:]

	carried := strings.Join(quoteRun.FindAllString(replaced, -1), "")
	if carried != "" {
		carried = trailingQuoteRun.FindString(prefix) + carried
	}

	var b strings.Builder
	b.Grow(len(line) + len(hint) + 4*len(escape) + 16)
	b.WriteString(prefix)
	b.WriteString(escape)
	b.WriteString("jedi=")
	b.WriteString(strconv.Itoa(len(carried)))
	b.WriteString(", ")
	b.WriteString(replaced)
	b.WriteString(escape)
	b.WriteString(hint)
	b.WriteString(escape)
	b.WriteString("jedi")
	b.WriteString(escape)
	b.WriteString(carried)
	b.WriteString(rest)

	return Splice{
		Text:    b.String(),
		Start:   start,
		End:     end,
		Carried: carried,
	}
}

// Strip removes a marker written by Compose and returns the original line.
// The boolean is false when line holds no well-formed marker, in which case
// line is returned unchanged.
//
// The covered text is taken up to the last delimiter before the closing
// sequence, so a hint containing the delimiter itself cannot be stripped.
func Strip(line, escape string) (string, bool) {
	if escape == "" {
		return line, false
	}

	open := escape + "jedi="
	closing := escape + "jedi" + escape

	i := strings.Index(line, open)
	if i < 0 {
		return line, false
	}

	lenStart := i + len(open)
	sep := strings.Index(line[lenStart:], ", ")
	if sep < 0 {
		return line, false
	}

	n, err := strconv.Atoi(line[lenStart : lenStart+sep])
	if err != nil || n < 0 {
		return line, false
	}

	body := lenStart + sep + 2
	c := strings.Index(line[body:], closing)
	if c < 0 {
		return line, false
	}
	c += body

	inner := line[body:c]
	hintAt := strings.LastIndex(inner, escape)
	if hintAt < 0 {
		return line, false
	}

	after := c + len(closing)
	if after+n > len(line) {
		return line, false
	}

	return line[:i] + inner[:hintAt] + line[after+n:], true
}

// HasMarker reports whether line carries an opening marker.
func HasMarker(line, escape string) bool {
	return escape != "" && strings.Contains(line, escape+"jedi=")
}
