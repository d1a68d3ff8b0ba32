package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "plain field",
			tmpl: "let g:host = {{ .Host }}",
			data: map[string]any{"Host": "pysense"},
			want: "let g:host = pysense",
		},
		{
			name: "vim quote",
			tmpl: "echo {{ vimq .Msg }}",
			data: map[string]any{"Msg": "it's"},
			want: "echo 'it''s'",
		},
		{
			name: "vim pattern",
			tmpl: "syntax match X /{{ vimpat .Esc }}jedi/",
			data: map[string]any{"Esc": "$."},
			want: `syntax match X /\$\.jedi/`,
		},
		{
			name: "join",
			tmpl: `{{ join .Args ", " }}`,
			data: map[string]any{"Args": []string{"'a'", "'b'"}},
			want: "'a', 'b'",
		},
		{
			name:    "missing key",
			tmpl:    "{{ .Missing }}",
			data:    map[string]any{},
			wantErr: true,
		},
		{
			name:    "bad syntax",
			tmpl:    "{{ .Host",
			data:    map[string]any{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVimQuote(t *testing.T) {
	assert.Equal(t, "''", vimQuote(""))
	assert.Equal(t, "'≡'", vimQuote("≡"))
	assert.Equal(t, "'a''b'", vimQuote("a'b"))
}
