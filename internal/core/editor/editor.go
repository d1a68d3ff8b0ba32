// Package editor holds the editor-facing command layer: the Host an
// integration must provide and the small Vim command builders shared by
// every operation.
package editor

import (
	"fmt"
	"strings"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

// Buffer is a loaded editor buffer other than the current one.
type Buffer struct {
	Name  string
	Lines []string
}

// QuickfixEntry is one item of the quickfix list. Builtin results only carry
// Text.
type QuickfixEntry struct {
	Filename string `msgpack:"filename,omitempty" json:"filename,omitempty"`
	Lnum     int    `msgpack:"lnum,omitempty" json:"lnum,omitempty"`
	Col      int    `msgpack:"col,omitempty" json:"col,omitempty"`
	Text     string `msgpack:"text" json:"text"`
}

// Host is the editor connection. Rows are 1-indexed and columns are 0-indexed
// byte offsets. Line and SetLine operate on whichever buffer is current when
// they are called.
type Host interface {
	Lines() ([]string, error)
	BufferName() (string, error)
	// Buffers returns the loaded buffers, excluding the current one, whose
	// names satisfy match.
	Buffers(match func(name string) bool) ([]Buffer, error)
	Cursor() (row, col int, err error)
	SetCursor(row, col int) error
	Line(row int) (string, error)
	SetLine(row int, text string) error
	// CurrentLines returns line access bound to the current buffer. It keeps
	// reading and writing that buffer after the user switches away.
	CurrentLines() (overlay.LineAccessor, error)
	Command(cmd string) error
	SetQuickfix(entries []QuickfixEntry) error
}

// VimString quotes s as a double-quoted Vim string literal.
func VimString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// WarnCommand is the command that echoes msg highlighted as a warning.
func WarnCommand(msg string) string {
	return "echohl WarningMsg | echo " + VimString(msg) + " | echohl None"
}

// Warn shows msg as a warning in the command line.
func Warn(h Host, msg string) error {
	return h.Command(WarnCommand(msg))
}

const fnameSpecial = " \t\n*?[{`$\\%#'\"|!<"

// FnameEscape escapes a path for use as a file argument of an Ex command.
func FnameEscape(path string) string {
	var b strings.Builder
	for i, r := range path {
		if strings.ContainsRune(fnameSpecial, r) || (i == 0 && (r == '-' || r == '+' || r == '>')) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// OpenCommand returns the command that opens path, in a tab when useTabs is
// set.
func OpenCommand(path string, useTabs bool) string {
	if useTabs {
		return "tab drop " + FnameEscape(path)
	}
	return "edit " + FnameEscape(path)
}

// OpenFile opens path in the editor.
func OpenFile(h Host, path string, useTabs bool) error {
	if err := h.Command(OpenCommand(path, useTabs)); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

// QuickfixEntries converts definitions into quickfix items.
func QuickfixEntries(defs []analysis.Definition) []QuickfixEntry {
	entries := make([]QuickfixEntry, 0, len(defs))
	for _, d := range defs {
		if d.Builtin {
			entries = append(entries, QuickfixEntry{Text: "Builtin " + d.Description})
			continue
		}
		entries = append(entries, QuickfixEntry{
			Filename: d.ModulePath,
			Lnum:     d.Line,
			Col:      d.Column + 1,
			Text:     d.Description,
		})
	}
	return entries
}

// ShowQuickfix fills the quickfix list with defs and opens the window below
// the current one, at most maxHeight lines tall.
func ShowQuickfix(h Host, defs []analysis.Definition, maxHeight int) error {
	if err := h.SetQuickfix(QuickfixEntries(defs)); err != nil {
		return fmt.Errorf("set quickfix: %w", err)
	}

	height := len(defs)
	if maxHeight > 0 && height > maxHeight {
		height = maxHeight
	}
	if height < 1 {
		height = 1
	}

	if err := h.Command("cclose"); err != nil {
		return err
	}
	return h.Command(fmt.Sprintf("belowright copen %d", height))
}
