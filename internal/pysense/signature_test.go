package pysense

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/pysense/internal/core/config"
	"github.com/hay-kot/pysense/internal/core/editor/editortest"
	"github.com/hay-kot/pysense/internal/core/overlay"
)

const (
	callLine   = "result = f(a, b)"
	markedLine = "result = f≡jedi=0, (a, b)≡ (a, *b*, c) ≡jedi≡"
)

func callSig() *overlay.Signature {
	return &overlay.Signature{Name: "f", Row: 2, Column: 12, Params: []string{"a", "b", "c"}, Index: 1}
}

func TestShowSignature_Splice(t *testing.T) {
	host := editortest.New("/src/main.py", callLine, "    a,")
	engine := &fakeEngine{sig: callSig()}
	svc := newTestService(t, host, engine)

	require.NoError(t, svc.ShowSignature(context.Background()))
	assert.Equal(t, []string{markedLine, "    a,"}, host.Buf)

	// The next request sees the original text and the hint is redrawn once.
	require.NoError(t, svc.ShowSignature(context.Background()))
	assert.Equal(t, callLine+"\n    a,\n", string(engine.req.Source))
	assert.Equal(t, []string{markedLine, "    a,"}, host.Buf)

	require.NoError(t, svc.ClearSignature(context.Background()))
	assert.Equal(t, []string{callLine, "    a,"}, host.Buf)
}

func TestShowSignature_NoCallRestores(t *testing.T) {
	host := editortest.New("/src/main.py", callLine, "    a,")
	engine := &fakeEngine{sig: callSig()}
	svc := newTestService(t, host, engine)

	require.NoError(t, svc.ShowSignature(context.Background()))
	require.Equal(t, markedLine, host.Buf[0])

	engine.sig = nil
	require.NoError(t, svc.ShowSignature(context.Background()))
	assert.Equal(t, callLine, host.Buf[0])
}

func TestShowSignature_EngineFailureIsSilent(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
	}{
		{name: "error", engine: &fakeEngine{sigErr: errBoom}},
		{name: "panic", engine: &fakeEngine{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := editortest.New("/src/main.py", callLine, "    a,")
			display := &recordingDisplay{}
			cfg := config.DefaultConfig()
			svc := NewService(host, tt.engine, &cfg, zerolog.Nop(), WithDisplay(display))

			require.NoError(t, svc.ShowSignature(context.Background()))
			assert.Empty(t, display.shown)
			assert.Equal(t, 1, display.clears)
			assert.Empty(t, host.Commands, "no warning is shown")
		})
	}
}

func TestShowSignature_Disabled(t *testing.T) {
	host := editortest.New("/src/main.py", callLine, "    a,")
	engine := &fakeEngine{sig: callSig()}
	display := &recordingDisplay{}
	cfg := config.DefaultConfig()
	cfg.Signatures.Enabled = false
	svc := NewService(host, engine, &cfg, zerolog.Nop(), WithDisplay(display))

	require.NoError(t, svc.ShowSignature(context.Background()))
	assert.Empty(t, engine.calls)
	assert.Empty(t, display.shown)
	assert.Equal(t, 1, display.clears)
}

func TestShowSignature_DisplayError(t *testing.T) {
	host := editortest.New("/src/main.py", callLine, "    a,")
	display := &recordingDisplay{err: errBoom}
	cfg := config.DefaultConfig()
	svc := NewService(host, &fakeEngine{sig: callSig()}, &cfg, zerolog.Nop(), WithDisplay(display))

	err := svc.ShowSignature(context.Background())
	require.ErrorIs(t, err, errBoom)
}

func TestSanitizeBuffer(t *testing.T) {
	host := editortest.New("/src/main.py",
		markedLine,
		"plain = 1",
		`x = ≡jedi=1, f("he≡ (s) ≡jedi≡"llo")`,
		"broken ≡jedi=",
	)
	svc := newTestService(t, host, &fakeEngine{})

	n, err := svc.SanitizeBuffer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		callLine,
		"plain = 1",
		`x = f("hello")`,
		"broken ≡jedi=",
	}, host.Buf)
}

func TestSanitizeBuffer_ClearsPendingOverlayFirst(t *testing.T) {
	host := editortest.New("/src/main.py", callLine, "    a,")
	svc := newTestService(t, host, &fakeEngine{sig: callSig()})

	require.NoError(t, svc.ShowSignature(context.Background()))

	n, err := svc.SanitizeBuffer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the pending overlay is restored, not stripped")
	assert.Equal(t, []string{callLine, "    a,"}, host.Buf)
}

func TestClearSignature_AfterBufferSwitch(t *testing.T) {
	host := editortest.New("/src/a.py", callLine, "    a,")
	svc := newTestService(t, host, &fakeEngine{sig: callSig()})

	require.NoError(t, svc.ShowSignature(context.Background()))
	require.Equal(t, markedLine, host.Buf[0])

	host.Switch("/src/b.py", callLine, "print(os)")

	require.NoError(t, svc.ClearSignature(context.Background()))
	assert.Equal(t, []string{callLine, "print(os)"}, host.Buf, "other buffer untouched")
	assert.Equal(t, []string{callLine, "    a,"}, host.Contents("/src/a.py"))
}

func TestShowSignature_AfterBufferSwitch(t *testing.T) {
	host := editortest.New("/src/a.py", callLine, "    a,")
	svc := newTestService(t, host, &fakeEngine{sig: callSig()})

	require.NoError(t, svc.ShowSignature(context.Background()))
	host.Switch("/src/b.py", callLine, "    a,")

	// Showing in the new buffer restores the old one first.
	require.NoError(t, svc.ShowSignature(context.Background()))
	assert.Equal(t, []string{callLine, "    a,"}, host.Contents("/src/a.py"))
	assert.Equal(t, []string{markedLine, "    a,"}, host.Buf)
}
