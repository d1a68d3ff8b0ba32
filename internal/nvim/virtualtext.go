package nvim

import (
	"strings"

	"github.com/neovim/go-client/nvim"

	"github.com/hay-kot/pysense/internal/core/overlay"
)

// VirtualText draws signature hints as extmarks instead of editing buffer
// text. It uses the same geometry as the in-buffer overlay: the line above
// the opening bracket, two columns to its left.
type VirtualText struct {
	v         *nvim.Nvim
	ns        int
	highlight string

	buf   nvim.Buffer
	shown bool
}

// NewVirtualText returns a display drawing with the given highlight group.
// The extmark namespace is created on first use, once the connection is
// serving.
func NewVirtualText(v *nvim.Nvim, highlight string) *VirtualText {
	return &VirtualText{v: v, ns: -1, highlight: highlight}
}

func (d *VirtualText) namespace() (int, error) {
	if d.ns >= 0 {
		return d.ns, nil
	}
	ns, err := d.v.CreateNamespace("pysense")
	if err != nil {
		return 0, err
	}
	d.ns = ns
	return ns, nil
}

// Show replaces the current hint with sig. Geometry the in-buffer overlay
// cannot render is skipped here too.
func (d *VirtualText) Show(sig *overlay.Signature) error {
	if err := d.Clear(); err != nil {
		return err
	}

	line, col, ok := placement(sig)
	if !ok {
		return nil
	}

	ns, err := d.namespace()
	if err != nil {
		return err
	}

	buf, err := d.v.CurrentBuffer()
	if err != nil {
		return err
	}

	raw, err := d.v.BufferLines(buf, line, line+1, true)
	if err != nil || len(raw) != 1 {
		return nil
	}

	hint := sig.Hint()
	if pad := col - len(raw[0]); pad > 0 {
		hint = strings.Repeat(" ", pad) + hint
		col = len(raw[0])
	}

	_, err = d.v.SetBufferExtmark(buf, ns, line, col, map[string]interface{}{
		"virt_text":     [][]string{{hint, d.highlight}},
		"virt_text_pos": "overlay",
	})
	if err != nil {
		return err
	}

	d.buf = buf
	d.shown = true
	return nil
}

// Clear removes the hint, if any.
func (d *VirtualText) Clear() error {
	if !d.shown {
		return nil
	}
	if err := d.v.ClearBufferNamespace(d.buf, d.ns, 0, -1); err != nil {
		return err
	}
	d.shown = false
	return nil
}

// placement maps a signature to a 0-indexed line and byte column.
func placement(sig *overlay.Signature) (int, int, bool) {
	if sig == nil || sig.Column < 2 || sig.Row < 2 {
		return 0, 0, false
	}
	return sig.Row - 2, sig.Column - 2, true
}
