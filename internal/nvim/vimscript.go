package nvim

import (
	"github.com/hay-kot/pysense/internal/core/overlay"
	"github.com/hay-kot/pysense/pkg/tmpl"
)

// ScriptOptions configures the generated bootstrap script.
type ScriptOptions struct {
	// Command is the pysense executable Neovim starts.
	Command string
	// Args are passed to `serve`, such as --config.
	Args      []string
	Escape    string
	Highlight string
	// Mappings adds the default <leader> mappings.
	Mappings bool
}

const script = `{{- $e := vimpat .Escape -}}
" pysense bootstrap, generated by ` + "`pysense vimscript`" + `.
if exists('g:loaded_pysense') || !has('nvim')
  finish
endif
let g:loaded_pysense = 1

function! s:start(host) abort
  return jobstart([{{ vimq .Command }}, 'serve'{{ range .Args }}, {{ vimq . }}{{ end }}], {'rpc': v:true})
endfunction

call remote#host#Register('pysense', '*.py', function('s:start'))
call remote#host#RegisterPlugin('pysense', '0', [
{{- range .Functions }}
      \ {'type': 'function', 'name': {{ vimq . }}, 'sync': 1, 'opts': {}},
{{- end }}
      \ ])

function! s:syntax() abort
  setlocal conceallevel=2 concealcursor=inv
  syntax match pysenseMarker /{{ $e }}jedi=\d\+, [^{{ $e }}]*{{ $e }}/ conceal
  syntax match pysenseMarker /{{ $e }}jedi{{ $e }}/ conceal
  syntax match pysenseHint /\%({{ $e }}jedi=\d\+, [^{{ $e }}]*{{ $e }}\)\@<=[^{{ $e }}]*\ze{{ $e }}jedi{{ $e }}/
  highlight default link pysenseHint {{ .Highlight }}
endfunction

augroup pysense
  autocmd!
  autocmd FileType python call s:syntax()
  autocmd CursorMovedI *.py,*.pyi call PysenseShowSignature()
  autocmd InsertLeave,BufLeave *.py,*.pyi call PysenseClearSignature()
  autocmd BufWritePre *.py,*.pyi call PysenseSanitize()
augroup END

command! -nargs=0 PysenseGoto call PysenseGoto()
command! -nargs=0 PysenseDefinition call PysenseDefinition()
command! -nargs=0 PysenseRelatedNames call PysenseRelatedNames()
command! -nargs=0 PysenseSanitize call PysenseSanitize()
command! -nargs=1 PysenseRename call PysenseRename(<q-args>)
{{- if .Mappings }}

nnoremap <silent> <leader>g :call PysenseGoto()<CR>
nnoremap <silent> <leader>d :call PysenseDefinition()<CR>
nnoremap <silent> <leader>n :call PysenseRelatedNames()<CR>
nnoremap <silent> <leader>r :call PysenseRename(input('Rename to: '))<CR>
{{- end }}
`

// Vimscript renders the script that registers the plugin host with Neovim.
func Vimscript(opts ScriptOptions) (string, error) {
	if opts.Command == "" {
		opts.Command = "pysense"
	}
	if opts.Escape == "" {
		opts.Escape = overlay.DefaultEscape
	}
	if opts.Highlight == "" {
		opts.Highlight = "Comment"
	}

	return tmpl.Render(script, map[string]any{
		"Command":   opts.Command,
		"Args":      opts.Args,
		"Escape":    opts.Escape,
		"Highlight": opts.Highlight,
		"Mappings":  opts.Mappings,
		"Functions": Functions,
	})
}
