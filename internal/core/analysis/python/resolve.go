package python

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const maxFollowDepth = 8

// query holds the modules parsed while answering one request.
type query struct {
	ctx   context.Context
	e     *Engine
	extra map[string][]byte
	mods  map[string]*module
}

func (e *Engine) newQuery(ctx context.Context, extra map[string][]byte) *query {
	return &query{
		ctx:   ctx,
		e:     e,
		extra: extra,
		mods:  make(map[string]*module),
	}
}

func (q *query) close() {
	for _, m := range q.mods {
		m.close()
	}
}

func (q *query) parse(path string, src []byte) (*module, error) {
	key := filepath.Clean(path)
	if m, ok := q.mods[key]; ok {
		return m, nil
	}

	m, err := parseModule(q.ctx, path, src)
	if err != nil {
		return nil, err
	}
	q.mods[key] = m
	return m, nil
}

// load parses a module by path, preferring the editor's copy.
func (q *query) load(path string) (*module, bool) {
	key := filepath.Clean(path)
	if m, ok := q.mods[key]; ok {
		return m, true
	}

	src, ok := q.extra[key]
	if !ok {
		var err error
		src, err = q.e.readFile(key)
		if err != nil {
			q.e.log.Debug().Err(err).Str("path", key).Msg("skip unreadable module")
			return nil, false
		}
	}

	m, err := q.parse(key, src)
	if err != nil {
		q.e.log.Debug().Err(err).Str("path", key).Msg("skip unparsable module")
		return nil, false
	}
	return m, true
}

func (q *query) exists(path string) bool {
	key := filepath.Clean(path)
	if _, ok := q.extra[key]; ok {
		return true
	}
	info, err := os.Stat(key)
	return err == nil && !info.IsDir()
}

// findModule maps an import name as written (`a.b`, `.c`, `..`) to a file.
func (q *query) findModule(from, name string) (string, bool) {
	dots := len(name) - len(strings.TrimLeft(name, "."))
	rest := strings.TrimLeft(name, ".")

	var roots []string
	if dots > 0 {
		dir := filepath.Dir(from)
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		roots = []string{dir}
	} else {
		roots = append([]string{filepath.Dir(from)}, q.e.paths...)
	}

	var parts []string
	if rest != "" {
		parts = strings.Split(rest, ".")
	}

	for _, root := range roots {
		base := filepath.Join(append([]string{root}, parts...)...)
		candidates := []string{
			filepath.Join(base, "__init__.py"),
			filepath.Join(base, "__init__.pyi"),
		}
		if len(parts) > 0 {
			candidates = append([]string{base + ".py", base + ".pyi"}, candidates...)
		}
		for _, c := range candidates {
			if q.exists(c) {
				return c, true
			}
		}
	}

	return "", false
}

// lookup resolves a bare name at off following Python's LEGB order. Class
// scopes are only consulted when they are the innermost scope.
func (m *module) lookup(name string, off uint32) (*scope, []*binding) {
	inner := m.top.at(off)
	for s := inner; s != nil; s = s.parent {
		if s.kind == scopeClass && s != inner {
			continue
		}
		if bs := s.bindings[name]; len(bs) > 0 {
			return s, bs
		}
	}
	return nil, nil
}

// gotoBindings narrows the bindings of a name to the ones a reference at off
// most likely sees: the last preceding binding in the same scope, or every
// binding when the name comes from an enclosing scope.
func (m *module) gotoBindings(name string, off uint32) []*binding {
	sc, bs := m.lookup(name, off)
	if sc == nil {
		return nil
	}
	if sc != m.top.at(off) {
		return bs
	}

	var last *binding
	for _, b := range bs {
		if b.ident.StartByte() <= off {
			last = b
		}
	}
	if last == nil {
		return bs[:1]
	}
	return []*binding{last}
}

// attributeObject returns the object of an attribute access when ident is
// its attribute name.
func attributeObject(ident *sitter.Node) *sitter.Node {
	parent := ident.Parent()
	if parent == nil || parent.Type() != "attribute" {
		return nil
	}
	if !sameNode(parent.ChildByFieldName("attribute"), ident) {
		return nil
	}
	return parent.ChildByFieldName("object")
}

// resolve returns the bindings an identifier refers to.
func (q *query) resolve(m *module, ident *sitter.Node) []*binding {
	name := m.text(ident)
	if obj := attributeObject(ident); obj != nil {
		return q.resolveAttr(m, obj, name, 0)
	}
	if kw := keywordArgument(ident); kw != nil {
		return q.resolveKeywordArgument(m, kw, name)
	}
	return m.gotoBindings(name, ident.StartByte())
}

// keywordArgument returns the call of `f(name=...)` when ident is name.
func keywordArgument(ident *sitter.Node) *sitter.Node {
	parent := ident.Parent()
	if parent == nil || parent.Type() != "keyword_argument" {
		return nil
	}
	if !sameNode(parent.ChildByFieldName("name"), ident) {
		return nil
	}
	args := parent.Parent()
	if args == nil || args.Type() != "argument_list" {
		return nil
	}
	call := args.Parent()
	if call == nil || call.Type() != "call" {
		return nil
	}
	return call
}

func (q *query) resolveKeywordArgument(m *module, call *sitter.Node, name string) []*binding {
	c := q.callable(m, call.ChildByFieldName("function"))
	if c == nil || c.fn == nil {
		return nil
	}
	if fs := functionScope(c.fn); fs != nil {
		return fs.bindings[name]
	}
	return nil
}

// functionScope returns the scope holding a def binding's parameters.
func functionScope(b *binding) *scope {
	if b.kind != bindDef {
		return nil
	}
	params := b.stmt.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}
	fs := b.scope.mod.top.at(params.StartByte())
	if fs.kind != scopeFunction {
		return nil
	}
	return fs
}

// resolveAttr resolves `obj.name`.
func (q *query) resolveAttr(m *module, obj *sitter.Node, name string, depth int) []*binding {
	if depth > maxFollowDepth {
		return nil
	}

	for _, cls := range q.classesOf(m, obj, depth) {
		if bs := q.classMember(cls, name, 0); len(bs) > 0 {
			return bs
		}
	}

	if obj.Type() == "identifier" {
		for _, b := range m.gotoBindings(m.text(obj), obj.StartByte()) {
			if b.kind != bindImport {
				continue
			}
			path, ok := q.findModule(m.path, b.module)
			if !ok {
				continue
			}
			if target, ok := q.load(path); ok {
				if bs := target.top.bindings[name]; len(bs) > 0 {
					return bs
				}
			}
		}
	}

	return nil
}

// classesOf returns the class scopes an expression may evaluate to an
// instance or reference of.
func (q *query) classesOf(m *module, expr *sitter.Node, depth int) []*scope {
	if expr == nil || depth > maxFollowDepth {
		return nil
	}

	switch expr.Type() {
	case "identifier":
		inner := m.top.at(expr.StartByte())
		for s := inner; s != nil; s = s.parent {
			if cls := s.class(); cls != nil && m.text(expr) == firstParamName(m, s) {
				return []*scope{cls}
			}
			if s.kind == scopeFunction {
				break
			}
		}

		var out []*scope
		for _, b := range m.gotoBindings(m.text(expr), expr.StartByte()) {
			out = append(out, q.classesOfBinding(b, depth+1)...)
		}
		return out
	case "call":
		return q.classesOf(m, expr.ChildByFieldName("function"), depth+1)
	case "attribute":
		attr := expr.ChildByFieldName("attribute")
		if attr == nil {
			return nil
		}
		var out []*scope
		for _, b := range q.resolveAttr(m, expr.ChildByFieldName("object"), m.text(attr), depth+1) {
			out = append(out, q.classesOfBinding(b, depth+1)...)
		}
		return out
	case "parenthesized_expression":
		return q.classesOf(m, expr.NamedChild(0), depth+1)
	}
	return nil
}

func (q *query) classesOfBinding(b *binding, depth int) []*scope {
	if depth > maxFollowDepth {
		return nil
	}

	switch b.kind {
	case bindClass:
		if cs := classScope(b); cs != nil {
			return []*scope{cs}
		}
	case bindAssign, bindAttr:
		if b.value != nil {
			return q.classesOf(b.scope.mod, b.value, depth+1)
		}
	case bindFromImport:
		var out []*scope
		for _, t := range q.followImport(b, depth+1) {
			out = append(out, q.classesOfBinding(t, depth+1)...)
		}
		return out
	}
	return nil
}

// classScope returns the body scope of a class binding.
func classScope(b *binding) *scope {
	if b.kind != bindClass {
		return nil
	}
	body := b.stmt.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	cs := b.scope.mod.top.at(body.StartByte())
	if cs.kind != scopeClass {
		return nil
	}
	return cs
}

// classMember looks a name up on a class, its instance attributes, and its
// bases in declaration order.
func (q *query) classMember(cls *scope, name string, depth int) []*binding {
	if depth > maxFollowDepth {
		return nil
	}
	if bs := cls.bindings[name]; len(bs) > 0 {
		return bs
	}
	if bs := cls.attrs[name]; len(bs) > 0 {
		return bs
	}

	m := cls.mod
	supers := cls.node.ChildByFieldName("superclasses")
	if supers == nil {
		return nil
	}
	for i := 0; i < int(supers.NamedChildCount()); i++ {
		for _, base := range q.classesOf(m, supers.NamedChild(i), depth+1) {
			if bs := q.classMember(base, name, depth+1); len(bs) > 0 {
				return bs
			}
		}
	}
	return nil
}

// followImport resolves `from m import x` to the bindings of x in m.
func (q *query) followImport(b *binding, depth int) []*binding {
	if depth > maxFollowDepth {
		return nil
	}

	path, ok := q.findModule(b.scope.mod.path, b.module)
	if !ok {
		return nil
	}

	target, ok := q.load(path)
	if !ok {
		return nil
	}

	name := b.imported
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return target.top.bindings[name]
}

// site is a resolved location ready to be reported.
type site struct {
	path    string
	line    int
	column  int
	name    string
	desc    string
	builtin bool
	keyword bool
}

func (q *query) siteOf(b *binding) site {
	m := b.scope.mod
	row, col := m.position(b.ident.StartByte())
	return site{
		path:   m.path,
		line:   row,
		column: col,
		name:   b.name,
		desc:   describe(m, b),
	}
}

// target is where following a binding ends: another binding, or the top of
// an imported module file.
type target struct {
	b          *binding
	modulePath string
	moduleName string
}

func (q *query) siteOfTarget(t target) site {
	if t.b != nil {
		return q.siteOf(t.b)
	}
	return site{path: t.modulePath, line: 1, column: 0, name: t.moduleName, desc: "module " + t.moduleName}
}

// follow resolves a binding through imports and plain aliases to the
// definitions it ultimately names.
func (q *query) follow(b *binding, depth int, seen map[*binding]bool) []target {
	if depth > maxFollowDepth || seen[b] {
		return []target{{b: b}}
	}
	seen[b] = true

	switch b.kind {
	case bindImport:
		if path, ok := q.findModule(b.scope.mod.path, b.module); ok {
			return []target{{modulePath: path, moduleName: b.module}}
		}
	case bindFromImport:
		next := q.followImport(b, depth+1)
		if len(next) == 0 {
			sub := strings.TrimSuffix(b.module, ".") + "." + b.imported
			if path, ok := q.findModule(b.scope.mod.path, sub); ok {
				return []target{{modulePath: path, moduleName: b.imported}}
			}
			break
		}
		return q.followAll(next, depth, seen)
	case bindAssign, bindAttr:
		if b.value == nil {
			break
		}
		m := b.scope.mod
		var next []*binding
		switch b.value.Type() {
		case "identifier":
			next = m.gotoBindings(m.text(b.value), b.value.StartByte())
		case "attribute":
			attr := b.value.ChildByFieldName("attribute")
			if attr != nil {
				next = q.resolveAttr(m, b.value.ChildByFieldName("object"), m.text(attr), depth+1)
			}
		}
		if len(next) > 0 {
			return q.followAll(next, depth, seen)
		}
	}

	return []target{{b: b}}
}

func (q *query) followAll(bs []*binding, depth int, seen map[*binding]bool) []target {
	var out []target
	for _, b := range bs {
		out = append(out, q.follow(b, depth+1, seen)...)
	}
	return out
}

// describe renders a one-line description of a binding.
func describe(m *module, b *binding) string {
	switch b.kind {
	case bindDef:
		params := m.text(b.stmt.ChildByFieldName("parameters"))
		return flatten("def " + b.name + params)
	case bindClass:
		return flatten("class " + b.name + m.text(b.stmt.ChildByFieldName("superclasses")))
	case bindParam:
		return "param " + flatten(m.text(b.stmt))
	case bindImport, bindFromImport:
		return flatten(m.text(b.stmt))
	}

	line := firstLine(m.text(b.stmt))
	if len(line) > 80 {
		line = line[:77] + "..."
	}
	return line
}
