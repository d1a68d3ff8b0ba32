package nvim

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neovim/go-client/nvim"
	"github.com/neovim/go-client/nvim/plugin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/config"
	"github.com/hay-kot/pysense/internal/core/editor"
	"github.com/hay-kot/pysense/internal/core/overlay"
	"github.com/hay-kot/pysense/internal/pysense"
)

// newTestNvim starts an embedded Neovim without user config. Tests are
// skipped when no nvim binary is installed.
func newTestNvim(t *testing.T) *nvim.Nvim {
	t.Helper()

	if _, err := exec.LookPath("nvim"); err != nil {
		t.Skip("nvim not installed")
	}

	v, err := nvim.NewChildProcess(
		nvim.ChildProcessArgs("-u", "NONE", "-n", "-i", "NONE", "--embed", "--headless"),
		nvim.ChildProcessEnv(append(os.Environ(), "XDG_CONFIG_HOME=", "XDG_DATA_HOME=")),
		nvim.ChildProcessLogf(t.Logf),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	return v
}

func setCurrentLines(t *testing.T, v *nvim.Nvim, lines ...string) nvim.Buffer {
	t.Helper()

	buf, err := v.CurrentBuffer()
	require.NoError(t, err)

	raw := make([][]byte, len(lines))
	for i, l := range lines {
		raw[i] = []byte(l)
	}
	require.NoError(t, v.SetBufferLines(buf, 0, -1, true, raw))
	return buf
}

func bufferText(t *testing.T, v *nvim.Nvim, buf nvim.Buffer) []string {
	t.Helper()

	raw, err := v.BufferLines(buf, 0, -1, true)
	require.NoError(t, err)

	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = string(l)
	}
	return out
}

func writeFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestHost_LinesAndCursor(t *testing.T) {
	v := newTestNvim(t)
	h := NewHost(v)

	setCurrentLines(t, v, "import os", "x = os.path", "print(x)")

	lines, err := h.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"import os", "x = os.path", "print(x)"}, lines)

	line, err := h.Line(2)
	require.NoError(t, err)
	assert.Equal(t, "x = os.path", line)

	_, err = h.Line(0)
	require.Error(t, err)
	_, err = h.Line(4)
	require.Error(t, err)

	require.NoError(t, h.SetLine(2, "y = os.sep"))
	lines, err = h.Lines()
	require.NoError(t, err)
	assert.Equal(t, []string{"import os", "y = os.sep", "print(x)"}, lines)

	require.NoError(t, h.SetCursor(3, 6))
	row, col, err := h.Cursor()
	require.NoError(t, err)
	assert.Equal(t, 3, row)
	assert.Equal(t, 6, col)
}

func TestHost_CurrentLinesStaysOnBuffer(t *testing.T) {
	v := newTestNvim(t)
	h := NewHost(v)

	first := setCurrentLines(t, v, "f(a, b)", "")

	pinned, err := h.CurrentLines()
	require.NoError(t, err)

	require.NoError(t, v.Command("enew"))
	second, err := v.CurrentBuffer()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, pinned.SetLine(1, "g(a, b)"))

	line, err := pinned.Line(1)
	require.NoError(t, err)
	assert.Equal(t, "g(a, b)", line)
	assert.Equal(t, []string{"g(a, b)", ""}, bufferText(t, v, first))
	assert.Equal(t, []string{""}, bufferText(t, v, second))

	require.NoError(t, v.Command(fmt.Sprintf("bwipeout! %d", int(first))))
	assert.NoError(t, pinned.SetLine(1, "f(a, b)"), "restoring into a wiped buffer is a no-op")
}

func TestHost_Buffers(t *testing.T) {
	v := newTestNvim(t)
	h := NewHost(v)

	dir := t.TempDir()
	util := writeFile(t, dir, "util.py", "def helper():", "    pass")
	mainPath := writeFile(t, dir, "main.py", "from util import helper")
	notes := writeFile(t, dir, "notes.txt", "todo")

	require.NoError(t, v.Command("edit "+notes))
	require.NoError(t, v.Command("split "+util))
	require.NoError(t, v.Command("split "+mainPath))

	bufs, err := h.Buffers(func(name string) bool { return strings.HasSuffix(name, ".py") })
	require.NoError(t, err)
	require.Len(t, bufs, 1, "the current buffer and non-matching names are excluded")
	assert.Equal(t, util, bufs[0].Name)
	assert.Equal(t, []string{"def helper():", "    pass"}, bufs[0].Lines)

	name, err := h.BufferName()
	require.NoError(t, err)
	assert.Equal(t, mainPath, name)
}

func TestHost_SetQuickfix(t *testing.T) {
	v := newTestNvim(t)
	h := NewHost(v)

	err := h.SetQuickfix([]editor.QuickfixEntry{
		{Filename: "/src/a.py", Lnum: 1, Col: 5, Text: "def a"},
		{Filename: "/src/b.py", Lnum: 3, Col: 1, Text: "a = 1"},
	})
	require.NoError(t, err)

	var size int
	require.NoError(t, v.Eval("len(getqflist())", &size))
	assert.Equal(t, 2, size)

	var text string
	require.NoError(t, v.Eval("getqflist()[1].text", &text))
	assert.Equal(t, "a = 1", text)
}

func TestVirtualText_ShowAndClear(t *testing.T) {
	v := newTestNvim(t)

	buf := setCurrentLines(t, v, "", "result = f(a,", "    b)")
	d := NewVirtualText(v, "Comment")

	sig := &overlay.Signature{Row: 2, Column: 11, Name: "f", Params: []string{"a", "b"}, Index: 0}
	require.NoError(t, d.Show(sig))

	marks, err := v.BufferExtmarks(buf, d.ns, 0, -1, map[string]interface{}{})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, 0, marks[0].Row)
	assert.Equal(t, 0, marks[0].Col, "short lines are padded from their end")
	assert.Equal(t, []string{"", "result = f(a,", "    b)"}, bufferText(t, v, buf), "buffer text is untouched")

	require.NoError(t, d.Show(sig))
	marks, err = v.BufferExtmarks(buf, d.ns, 0, -1, map[string]interface{}{})
	require.NoError(t, err)
	assert.Len(t, marks, 1, "showing again replaces the hint")

	require.NoError(t, d.Clear())
	marks, err = v.BufferExtmarks(buf, d.ns, 0, -1, map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestVirtualText_SkipsFirstLine(t *testing.T) {
	v := newTestNvim(t)

	setCurrentLines(t, v, "f(a, b)")
	d := NewVirtualText(v, "Comment")

	require.NoError(t, d.Show(&overlay.Signature{Row: 1, Column: 2, Name: "f", Params: []string{"a"}}))
	assert.Equal(t, -1, d.ns, "nothing is drawn without a line above")
	require.NoError(t, d.Clear())
}

// gotoEngine resolves every goto to a single definition.
type gotoEngine struct {
	def analysis.Definition
}

func (e gotoEngine) Goto(context.Context, analysis.Request) ([]analysis.Definition, error) {
	return []analysis.Definition{e.def}, nil
}

func (e gotoEngine) Definitions(context.Context, analysis.Request) ([]analysis.Definition, error) {
	return []analysis.Definition{e.def}, nil
}

func (e gotoEngine) RelatedNames(context.Context, analysis.Request) ([]analysis.Definition, error) {
	return []analysis.Definition{e.def, e.def}, nil
}

func (e gotoEngine) CallSignature(context.Context, analysis.Request) (*overlay.Signature, error) {
	return nil, nil
}

func TestRegister_GotoWithBufLeaveAutocmd(t *testing.T) {
	v := newTestNvim(t)

	dir := t.TempDir()
	util := writeFile(t, dir, "util.py", "def helper():", "    pass")
	mainPath := writeFile(t, dir, "main.py", "from util import helper", "helper()")

	cfg := config.DefaultConfig()
	cfg.UseTabsNotBuffers = false

	svc := pysense.NewService(NewHost(v), gotoEngine{
		def: analysis.Definition{Name: "helper", ModulePath: util, Line: 1, Column: 4, Description: "def helper"},
	}, &cfg, zerolog.Nop())
	Register(plugin.New(v), svc)

	require.NoError(t, v.Command("edit "+mainPath))
	require.NoError(t, v.Command(fmt.Sprintf(
		"autocmd BufLeave *.py call rpcrequest(%d, '0:function:PysenseClearSignature', [])", v.ChannelID())))
	require.NoError(t, v.Command("let g:pysense_left = 0"))
	require.NoError(t, v.Command("autocmd BufLeave *.py let g:pysense_left += 1"))

	done := make(chan error, 1)
	go func() {
		_, err := svc.Goto(context.Background(), pysense.KindGoto)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("goto did not return while BufLeave called back into the service")
	}

	var left int
	require.NoError(t, v.Var("pysense_left", &left))
	assert.Equal(t, 1, left)

	name, err := NewHost(v).BufferName()
	require.NoError(t, err)
	assert.Equal(t, util, name)

	row, col, err := NewHost(v).Cursor()
	require.NoError(t, err)
	assert.Equal(t, 1, row)
	assert.Equal(t, 4, col)
}
