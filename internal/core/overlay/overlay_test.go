package overlay

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memLines is an in-memory LineAccessor with 1-indexed rows.
type memLines struct {
	rows    []string
	writes  int
	failSet bool
}

func newMemLines(rows ...string) *memLines {
	return &memLines{rows: rows}
}

func (m *memLines) Line(row int) (string, error) {
	if row < 1 || row > len(m.rows) {
		return "", fmt.Errorf("row %d out of range", row)
	}
	return m.rows[row-1], nil
}

func (m *memLines) SetLine(row int, text string) error {
	if m.failSet {
		return errors.New("read-only buffer")
	}
	if row < 1 || row > len(m.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	m.writes++
	m.rows[row-1] = text
	return nil
}

func TestSignature_Hint(t *testing.T) {
	tests := []struct {
		name   string
		params []string
		index  int
		want   string
	}{
		{name: "active middle", params: []string{"a", "b", "c"}, index: 1, want: " (a, *b*, c) "},
		{name: "active first", params: []string{"a", "b"}, index: 0, want: " (*a*, b) "},
		{name: "no index", params: []string{"a", "b"}, index: NoIndex, want: " (a, b) "},
		{name: "negative", params: []string{"a"}, index: -5, want: " (a) "},
		{name: "past end", params: []string{"a", "b"}, index: 2, want: " (a, b) "},
		{name: "no params", params: nil, index: 0, want: " () "},
		{name: "multiline default", params: []string{"x=[1,\n 2]"}, index: NoIndex, want: " (x=[1, 2]) "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := &Signature{Params: tt.params, Index: tt.index}
			assert.Equal(t, tt.want, sig.Hint())
		})
	}
}

func TestRender_EndToEnd(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "    a,")
	r := NewRenderer("")

	sig := &Signature{Row: 2, Column: 12, Params: []string{"a", "b", "c"}, Index: 1}

	ok, err := r.Render(lines, sig)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "result = f≡jedi=0, (a, b)≡ (a, *b*, c) ≡jedi≡", lines.rows[0])
	assert.Equal(t, "    a,", lines.rows[1], "only the row above the bracket changes")

	state, pending := r.Pending()
	require.True(t, pending)
	assert.Equal(t, 1, state.Row)
	assert.Equal(t, "result = f(a, b)", state.Original)
	assert.Equal(t, 10, state.Start)
	assert.Equal(t, 16, state.End)

	restored, err := r.Restore()
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "result = f(a, b)", lines.rows[0])
}

func TestRender_RoundTrip(t *testing.T) {
	originals := []string{
		"",
		"ab",
		"result = f(a, b)",
		`x = f("he`,
		`print("")`,
		`s = '\'' + "\\"`,
		"    values = compute(first, second, third, fourth)",
		"tab\tseparated\tline",
		"unicode ≤ é ✓ text",
	}

	sigs := []*Signature{
		{Row: 2, Column: 2, Params: []string{"x"}, Index: NoIndex},
		{Row: 2, Column: 8, Params: []string{"a", "b"}, Index: 0},
		{Row: 2, Column: 12, Params: []string{"self", "key=None", "*args", "**kwargs"}, Index: 3},
		{Row: 2, Column: 40, Params: []string{"a"}, Index: 7},
	}

	for _, line := range originals {
		for _, sig := range sigs {
			t.Run(fmt.Sprintf("%q@%d", line, sig.Column), func(t *testing.T) {
				lines := newMemLines(line, "next")
				r := NewRenderer(DefaultEscape)

				ok, err := r.Render(lines, sig)
				require.NoError(t, err)
				require.True(t, ok)

				stripped, found := Strip(lines.rows[0], DefaultEscape)
				assert.True(t, found)
				assert.Equal(t, line, stripped, "marker must decode to the original")

				_, err = r.Restore()
				require.NoError(t, err)
				assert.Equal(t, line, lines.rows[0])
			})
		}
	}
}

func TestRestore_Idempotent(t *testing.T) {
	lines := newMemLines("value = call(x)", "")
	r := NewRenderer("")

	_, err := r.Render(lines, &Signature{Row: 2, Column: 14, Params: []string{"x"}, Index: 0})
	require.NoError(t, err)

	first, err := r.Restore()
	require.NoError(t, err)
	assert.True(t, first)
	writes := lines.writes

	second, err := r.Restore()
	require.NoError(t, err)
	assert.False(t, second)
	assert.Equal(t, writes, lines.writes, "second restore must not write")
	assert.Equal(t, "value = call(x)", lines.rows[0])
}

func TestRestore_NothingPending(t *testing.T) {
	r := NewRenderer("")
	ok, err := r.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRender_SingleOverlay(t *testing.T) {
	first := &Signature{Row: 2, Column: 12, Params: []string{"a", "b"}, Index: 0}
	second := &Signature{Row: 3, Column: 6, Params: []string{"x", "y", "z"}, Index: 2}

	// Two renders back to back.
	twice := newMemLines("result = f(a, b)", "other = g(x,", "    y, z)")
	r1 := NewRenderer("")
	_, err := r1.Render(twice, first)
	require.NoError(t, err)
	_, err = r1.Render(twice, second)
	require.NoError(t, err)

	// Explicit restore in between.
	explicit := newMemLines("result = f(a, b)", "other = g(x,", "    y, z)")
	r2 := NewRenderer("")
	_, err = r2.Render(explicit, first)
	require.NoError(t, err)
	_, err = r2.Restore()
	require.NoError(t, err)
	_, err = r2.Render(explicit, second)
	require.NoError(t, err)

	assert.Equal(t, explicit.rows, twice.rows)
	assert.Equal(t, "result = f(a, b)", twice.rows[0], "first overlay must not leak")
	assert.False(t, HasMarker(twice.rows[0], DefaultEscape))
	assert.True(t, HasMarker(twice.rows[1], DefaultEscape))
}

func TestRender_GeometryGuards(t *testing.T) {
	tests := []struct {
		name string
		sig  *Signature
	}{
		{name: "column 0", sig: &Signature{Row: 2, Column: 0, Params: []string{"a"}}},
		{name: "column 1", sig: &Signature{Row: 2, Column: 1, Params: []string{"a"}}},
		{name: "row 0", sig: &Signature{Row: 0, Column: 10, Params: []string{"a"}}},
		{name: "row above buffer", sig: &Signature{Row: 1, Column: 10, Params: []string{"a"}}},
		{name: "row past buffer", sig: &Signature{Row: 9, Column: 10, Params: []string{"a"}}},
		{name: "nil signature", sig: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := newMemLines("first line here", "second line here")
			r := NewRenderer("")

			ok, err := r.Render(lines, tt.sig)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, []string{"first line here", "second line here"}, lines.rows)
			assert.Zero(t, lines.writes)

			_, pending := r.Pending()
			assert.False(t, pending)
		})
	}
}

func TestRender_NilSignatureRestores(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "")
	r := NewRenderer("")

	_, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a"}, Index: 0})
	require.NoError(t, err)

	ok, err := r.Render(lines, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "result = f(a, b)", lines.rows[0])
}

func TestRender_BoldIndexSafety(t *testing.T) {
	for _, index := range []int{NoIndex, -2, 3, 100} {
		t.Run(fmt.Sprint(index), func(t *testing.T) {
			lines := newMemLines("result = f(a, b)", "")
			r := NewRenderer("")

			ok, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a", "b", "c"}, Index: index})
			require.NoError(t, err)
			require.True(t, ok)
			assert.NotContains(t, lines.rows[0], "*")
		})
	}
}

func TestRender_WriteFailureLeavesNoState(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "")
	lines.failSet = true
	r := NewRenderer("")

	ok, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a"}, Index: 0})
	require.Error(t, err)
	assert.False(t, ok)

	_, pending := r.Pending()
	assert.False(t, pending)
}

func TestRestore_FailureKeepsPending(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "")
	r := NewRenderer("")

	_, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a"}, Index: 0})
	require.NoError(t, err)

	lines.failSet = true
	_, err = r.Restore()
	require.Error(t, err)

	_, pending := r.Pending()
	assert.True(t, pending, "failed restore must be retried")

	// A render while the restore keeps failing must not stack a second overlay.
	ok, err := r.Render(lines, &Signature{Row: 2, Column: 4, Params: []string{"z"}, Index: 0})
	require.Error(t, err)
	assert.False(t, ok)

	lines.failSet = false
	ok, err = r.Restore()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "result = f(a, b)", lines.rows[0])
}

func TestRenderer_Forget(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "")
	r := NewRenderer("")

	_, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a"}, Index: 0})
	require.NoError(t, err)

	r.Forget()
	ok, err := r.Restore()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, HasMarker(lines.rows[0], DefaultEscape))
}

func TestRender_CustomEscape(t *testing.T) {
	lines := newMemLines("result = f(a, b)", "")
	r := NewRenderer("\x01")
	assert.Equal(t, "\x01", r.Escape())

	_, err := r.Render(lines, &Signature{Row: 2, Column: 12, Params: []string{"a"}, Index: NoIndex})
	require.NoError(t, err)
	assert.Equal(t, "result = f\x01jedi=0, (a,\x01 (a) \x01jedi\x01 b)", lines.rows[0])
}
