// Package nvim connects the pysense service to Neovim over msgpack-rpc.
package nvim

import (
	"fmt"

	"github.com/neovim/go-client/nvim"

	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

// Host implements editor.Host on the current buffer and window of a Neovim
// instance.
type Host struct {
	v *nvim.Nvim
}

var _ editor.Host = (*Host)(nil)

// NewHost wraps a Neovim connection.
func NewHost(v *nvim.Nvim) *Host {
	return &Host{v: v}
}

func (h *Host) Lines() ([]string, error) {
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return nil, err
	}
	return h.readBuffer(buf)
}

func (h *Host) readBuffer(buf nvim.Buffer) ([]string, error) {
	raw, err := h.v.BufferLines(buf, 0, -1, true)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = string(l)
	}
	return lines, nil
}

func (h *Host) BufferName() (string, error) {
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return "", err
	}
	return h.v.BufferName(buf)
}

func (h *Host) Buffers(match func(name string) bool) ([]editor.Buffer, error) {
	current, err := h.v.CurrentBuffer()
	if err != nil {
		return nil, err
	}

	bufs, err := h.v.Buffers()
	if err != nil {
		return nil, err
	}

	var out []editor.Buffer
	for _, buf := range bufs {
		if buf == current {
			continue
		}
		loaded, err := h.v.IsBufferLoaded(buf)
		if err != nil || !loaded {
			continue
		}
		name, err := h.v.BufferName(buf)
		if err != nil || (match != nil && !match(name)) {
			continue
		}
		lines, err := h.readBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("read buffer %s: %w", name, err)
		}
		out = append(out, editor.Buffer{Name: name, Lines: lines})
	}
	return out, nil
}

func (h *Host) Cursor() (int, int, error) {
	win, err := h.v.CurrentWindow()
	if err != nil {
		return 0, 0, err
	}
	pos, err := h.v.WindowCursor(win)
	if err != nil {
		return 0, 0, err
	}
	return pos[0], pos[1], nil
}

func (h *Host) SetCursor(row, col int) error {
	win, err := h.v.CurrentWindow()
	if err != nil {
		return err
	}
	return h.v.SetWindowCursor(win, [2]int{row, col})
}

func (h *Host) Line(row int) (string, error) {
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return "", err
	}
	return (&bufferLines{v: h.v, buf: buf}).Line(row)
}

func (h *Host) SetLine(row int, text string) error {
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return err
	}
	return (&bufferLines{v: h.v, buf: buf}).SetLine(row, text)
}

func (h *Host) CurrentLines() (overlay.LineAccessor, error) {
	buf, err := h.v.CurrentBuffer()
	if err != nil {
		return nil, err
	}
	return &bufferLines{v: h.v, buf: buf}, nil
}

// bufferLines accesses one buffer by handle.
type bufferLines struct {
	v   *nvim.Nvim
	buf nvim.Buffer
}

func (b *bufferLines) Line(row int) (string, error) {
	if row < 1 {
		return "", fmt.Errorf("line %d out of range", row)
	}
	raw, err := b.v.BufferLines(b.buf, row-1, row, true)
	if err != nil {
		return "", err
	}
	if len(raw) != 1 {
		return "", fmt.Errorf("line %d out of range", row)
	}
	return string(raw[0]), nil
}

// SetLine on a wiped buffer is a no-op: there is no text left to restore.
func (b *bufferLines) SetLine(row int, text string) error {
	if row < 1 {
		return fmt.Errorf("line %d out of range", row)
	}
	if valid, err := b.v.IsBufferValid(b.buf); err == nil && !valid {
		return nil
	}
	return b.v.SetBufferLines(b.buf, row-1, row, true, [][]byte{[]byte(text)})
}

func (h *Host) Command(cmd string) error {
	return h.v.Command(cmd)
}

func (h *Host) SetQuickfix(entries []editor.QuickfixEntry) error {
	var ret int
	return h.v.Call("setqflist", &ret, entries)
}
