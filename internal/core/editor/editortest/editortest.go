// Package editortest provides an in-memory editor.Host for tests.
package editortest

import (
	"fmt"
	"sync"

	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

// Host is an in-memory editor with one current buffer. Commands and
// quickfix lists are recorded rather than executed.
type Host struct {
	mu sync.Mutex

	Name   string
	Buf    []string
	Others []editor.Buffer
	Row    int
	Col    int

	Commands []string
	Quickfix []editor.QuickfixEntry

	// FailCommands makes Command return an error.
	FailCommands bool
}

var _ editor.Host = (*Host)(nil)

// New returns a host editing name with the given lines and the cursor on the
// first line.
func New(name string, lines ...string) *Host {
	return &Host{Name: name, Buf: lines, Row: 1}
}

func (h *Host) Lines() ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.Buf...), nil
}

func (h *Host) BufferName() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Name, nil
}

func (h *Host) Buffers(match func(string) bool) ([]editor.Buffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []editor.Buffer
	for _, b := range h.Others {
		if match == nil || match(b.Name) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (h *Host) Cursor() (int, int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Row, h.Col, nil
}

func (h *Host) SetCursor(row, col int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Row, h.Col = row, col
	return nil
}

func (h *Host) Line(row int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if row < 1 || row > len(h.Buf) {
		return "", fmt.Errorf("line %d out of range", row)
	}
	return h.Buf[row-1], nil
}

func (h *Host) SetLine(row int, text string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if row < 1 || row > len(h.Buf) {
		return fmt.Errorf("line %d out of range", row)
	}
	h.Buf[row-1] = text
	return nil
}

func (h *Host) CurrentLines() (overlay.LineAccessor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &bufferLines{h: h, name: h.Name}, nil
}

// Switch makes name the current buffer and moves the previous one to Others.
// A name not already open becomes a new buffer holding lines.
func (h *Host) Switch(name string, lines ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := lines
	for i, b := range h.Others {
		if b.Name == name {
			next = b.Lines
			h.Others = append(h.Others[:i], h.Others[i+1:]...)
			break
		}
	}

	h.Others = append(h.Others, editor.Buffer{Name: h.Name, Lines: h.Buf})
	h.Name, h.Buf = name, next
	h.Row, h.Col = 1, 0
}

// Contents returns a copy of the named buffer's lines, or nil when no such
// buffer is open.
func (h *Host) Contents(name string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	lines, ok := h.buffer(name)
	if !ok {
		return nil
	}
	return append([]string(nil), lines...)
}

// buffer finds a buffer by name. Callers hold h.mu.
func (h *Host) buffer(name string) ([]string, bool) {
	if name == h.Name {
		return h.Buf, true
	}
	for _, b := range h.Others {
		if b.Name == name {
			return b.Lines, true
		}
	}
	return nil, false
}

// bufferLines reads and writes one named buffer regardless of which buffer
// is current.
type bufferLines struct {
	h    *Host
	name string
}

func (b *bufferLines) Line(row int) (string, error) {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	lines, ok := b.h.buffer(b.name)
	if !ok {
		return "", fmt.Errorf("buffer %s is closed", b.name)
	}
	if row < 1 || row > len(lines) {
		return "", fmt.Errorf("line %d out of range", row)
	}
	return lines[row-1], nil
}

func (b *bufferLines) SetLine(row int, text string) error {
	b.h.mu.Lock()
	defer b.h.mu.Unlock()
	lines, ok := b.h.buffer(b.name)
	if !ok {
		return fmt.Errorf("buffer %s is closed", b.name)
	}
	if row < 1 || row > len(lines) {
		return fmt.Errorf("line %d out of range", row)
	}
	lines[row-1] = text
	return nil
}

func (h *Host) Command(cmd string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.FailCommands {
		return fmt.Errorf("command failed: %s", cmd)
	}
	h.Commands = append(h.Commands, cmd)
	return nil
}

func (h *Host) SetQuickfix(entries []editor.QuickfixEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Quickfix = entries
	return nil
}

// Source joins the buffer lines the way the editor writes them.
func (h *Host) Source() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out string
	for _, l := range h.Buf {
		out += l + "\n"
	}
	return out
}
