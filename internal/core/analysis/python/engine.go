// Package python implements analysis.Engine for Python on top of
// tree-sitter.
package python

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/hay-kot/pysense/internal/core/analysis"
	"github.com/hay-kot/pysense/internal/core/overlay"
	"github.com/hay-kot/pysense/pkg/kv"
)

const (
	// DefaultMaxFileSize is the largest source the engine parses.
	DefaultMaxFileSize = 1 << 20
	defaultCacheSize   = 256
)

// ErrFileTooLarge is returned for sources above the configured limit.
var ErrFileTooLarge = errors.New("file too large")

var _ analysis.Engine = (*Engine)(nil)

// Option configures an Engine.
type Option func(*Engine)

// WithPaths adds import roots searched after the querying file's directory.
func WithPaths(paths ...string) Option {
	return func(e *Engine) {
		e.paths = append(e.paths, paths...)
	}
}

// WithMaxFileSize caps the size of parsed sources. Non-positive values are
// ignored.
func WithMaxFileSize(n int64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxFileSize = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithCacheSize bounds the number of imported files kept in memory.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.files = kv.NewBounded[string, cachedFile](n)
	}
}

type cachedFile struct {
	modTime time.Time
	size    int64
	src     []byte
}

// Engine answers navigation queries for Python sources. It is safe for
// concurrent use; every query parses into trees it owns.
type Engine struct {
	paths       []string
	maxFileSize int64
	log         zerolog.Logger
	files       *kv.Store[string, cachedFile]
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxFileSize: DefaultMaxFileSize,
		log:         zerolog.Nop(),
		files:       kv.NewBounded[string, cachedFile](defaultCacheSize),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// readFile returns a file's contents, reusing the cached copy while its size
// and modification time are unchanged.
func (e *Engine) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}

	f, err := e.files.GetOrLoad(path,
		func(f cachedFile) bool {
			return f.size == info.Size() && f.modTime.Equal(info.ModTime())
		},
		func() (cachedFile, error) {
			src, err := os.ReadFile(path)
			if err != nil {
				return cachedFile{}, err
			}
			return cachedFile{modTime: info.ModTime(), size: info.Size(), src: src}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return f.src, nil
}

// prepare parses the request source and locates the cursor. The caller must
// close the returned query.
func (e *Engine) prepare(ctx context.Context, req analysis.Request) (*query, *module, uint32, error) {
	if int64(len(req.Source)) > e.maxFileSize {
		return nil, nil, 0, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Source), e.maxFileSize)
	}

	extra := make(map[string][]byte, len(req.Extra)+1)
	for _, mod := range req.Extra {
		extra[filepath.Clean(mod.Path)] = mod.Source
	}
	if req.Path != "" {
		extra[filepath.Clean(req.Path)] = req.Source
	}

	q := e.newQuery(ctx, extra)
	m, err := q.parse(req.Path, req.Source)
	if err != nil {
		q.close()
		return nil, nil, 0, err
	}

	off, ok := m.offset(req.Row, req.Column)
	if !ok {
		q.close()
		return nil, nil, 0, fmt.Errorf("cursor %d:%d: %w", req.Row, req.Column, analysis.ErrNotFound)
	}

	return q, m, off, nil
}

// Goto returns the binding sites of the name under the cursor.
func (e *Engine) Goto(ctx context.Context, req analysis.Request) ([]analysis.Definition, error) {
	return e.lookup(ctx, req, false)
}

// Definitions returns the definitions of the name under the cursor,
// following imports and aliases.
func (e *Engine) Definitions(ctx context.Context, req analysis.Request) ([]analysis.Definition, error) {
	return e.lookup(ctx, req, true)
}

func (e *Engine) lookup(ctx context.Context, req analysis.Request, follow bool) ([]analysis.Definition, error) {
	q, m, off, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer q.close()

	ident := m.nameAt(off)
	if ident == nil {
		return nil, analysis.ErrNotFound
	}

	name := m.text(ident)
	if isKeyword(ident) {
		return toDefinitions([]site{{name: name, desc: "keyword " + name, builtin: true, keyword: true}}), nil
	}

	bs := q.resolve(m, ident)
	if len(bs) == 0 {
		if desc, ok := builtinDescription(name); ok && attributeObject(ident) == nil {
			return toDefinitions([]site{{name: name, desc: desc, builtin: true}}), nil
		}
		return nil, nil
	}

	var sites []site
	if follow {
		seen := make(map[*binding]bool)
		for _, t := range q.followAll(bs, 0, seen) {
			sites = append(sites, q.siteOfTarget(t))
		}
	} else {
		for _, b := range bs {
			sites = append(sites, q.siteOf(b))
		}
	}

	return toDefinitions(dedupe(sites)), nil
}

// RelatedNames returns every reference to the binding under the cursor in
// the request source and in the extra modules that import it.
func (e *Engine) RelatedNames(ctx context.Context, req analysis.Request) ([]analysis.Definition, error) {
	q, m, off, err := e.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	defer q.close()

	ident := m.nameAt(off)
	if ident == nil || isKeyword(ident) {
		return nil, analysis.ErrNotFound
	}

	want := q.refOf(m, ident)
	sites := q.references(m, want)

	if want.sc == m.top && len(req.Extra) > 0 {
		extra, err := e.importerReferences(ctx, req, q.extra, want.name)
		if err != nil {
			return nil, err
		}
		sites = append(sites, extra...)
	}

	return toDefinitions(dedupe(sites)), nil
}

// importerReferences scans the extra modules concurrently for references to
// a module-level name of the request source.
func (e *Engine) importerReferences(ctx context.Context, req analysis.Request, extra map[string][]byte, name string) ([]site, error) {
	results := make([][]site, len(req.Extra))

	g, gctx := errgroup.WithContext(ctx)
	for i, mod := range req.Extra {
		if filepath.Clean(mod.Path) == filepath.Clean(req.Path) {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			sub := e.newQuery(gctx, extra)
			defer sub.close()

			em, err := sub.parse(mod.Path, mod.Source)
			if err != nil {
				e.log.Debug().Err(err).Str("path", mod.Path).Msg("skip extra module")
				return nil
			}
			results[i] = sub.importers(em, req.Path, name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan open modules: %w", err)
	}

	var out []site
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// CallSignature returns the call the cursor is inside, or nil.
func (e *Engine) CallSignature(ctx context.Context, req analysis.Request) (*overlay.Signature, error) {
	q, m, off, err := e.prepare(ctx, req)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer q.close()

	return q.signature(m, off), nil
}

// ref identifies what a name refers to for related-name matching. Names that
// do not resolve match by spelling; unresolved attributes only match other
// unresolved attributes.
type ref struct {
	sc   *scope
	name string
	attr bool
}

func (q *query) refOf(m *module, ident *sitter.Node) ref {
	name := m.text(ident)

	if obj := attributeObject(ident); obj != nil {
		if bs := q.resolveAttr(m, obj, name, 0); len(bs) > 0 {
			return ref{sc: bs[0].scope, name: name}
		}
		return ref{name: name, attr: true}
	}

	if call := keywordArgument(ident); call != nil {
		if bs := q.resolveKeywordArgument(m, call, name); len(bs) > 0 {
			return ref{sc: bs[0].scope, name: name}
		}
		return ref{name: name, attr: true}
	}

	sc, _ := m.lookup(name, ident.StartByte())
	return ref{sc: sc, name: name}
}

// references returns every identifier in m that refers to want.
func (q *query) references(m *module, want ref) []site {
	var out []site
	walk(m.root, func(n *sitter.Node) bool {
		if n.Type() != "identifier" || m.text(n) != want.name {
			return true
		}
		if q.refOf(m, n) == want {
			out = append(out, lineSite(m, n))
		}
		return true
	})
	return out
}

// importers returns references in m to name imported from the module at
// path, either through `from path import name` or `import path; path.name`.
func (q *query) importers(m *module, path, name string) []site {
	target := filepath.Clean(path)
	fromRefs := make(map[ref]bool)
	modules := make(map[*binding]bool)

	var visit func(s *scope)
	visit = func(s *scope) {
		for _, bs := range s.bindings {
			for _, b := range bs {
				if b.module == "" {
					continue
				}
				resolved, ok := q.findModule(m.path, b.module)
				if !ok || filepath.Clean(resolved) != target {
					continue
				}
				switch {
				case b.kind == bindFromImport && lastPart(b.imported) == name:
					fromRefs[ref{sc: s, name: b.name}] = true
				case b.kind == bindImport:
					modules[b] = true
				}
			}
		}
		for _, c := range s.children {
			visit(c)
		}
	}
	visit(m.top)

	var out []site
	walk(m.root, func(n *sitter.Node) bool {
		if n.Type() != "identifier" {
			return true
		}
		if obj := attributeObject(n); obj != nil {
			if m.text(n) == name && obj.Type() == "identifier" {
				for _, b := range m.gotoBindings(m.text(obj), obj.StartByte()) {
					if modules[b] {
						out = append(out, lineSite(m, n))
						break
					}
				}
			}
			return true
		}
		if len(fromRefs) > 0 && fromRefs[q.refOf(m, n)] {
			out = append(out, lineSite(m, n))
		}
		return true
	})
	return out
}

func lastPart(dotted string) string {
	for i := len(dotted) - 1; i >= 0; i-- {
		if dotted[i] == '.' {
			return dotted[i+1:]
		}
	}
	return dotted
}

// lineSite reports an identifier with its source line as description.
func lineSite(m *module, n *sitter.Node) site {
	row, col := m.position(n.StartByte())
	line := ""
	if row-1 < len(m.lineStarts) {
		start := m.lineStarts[row-1]
		end := uint32(len(m.src))
		if row < len(m.lineStarts) {
			end = m.lineStarts[row] - 1
		}
		line = string(m.src[start:end])
	}
	return site{path: m.path, line: row, column: col, name: m.text(n), desc: firstLine(line)}
}

func dedupe(sites []site) []site {
	type key struct {
		path      string
		line, col int
		name      string
	}
	seen := make(map[key]bool, len(sites))
	out := sites[:0]
	for _, s := range sites {
		k := key{s.path, s.line, s.column, s.name}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func toDefinitions(sites []site) []analysis.Definition {
	defs := make([]analysis.Definition, 0, len(sites))
	for _, s := range sites {
		defs = append(defs, analysis.Definition{
			Name:        s.name,
			ModulePath:  s.path,
			Line:        s.line,
			Column:      s.column,
			Description: s.desc,
			Builtin:     s.builtin,
			Keyword:     s.keyword,
		})
	}
	return defs
}
