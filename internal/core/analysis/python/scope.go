package python

import (
	sitter "github.com/smacker/go-tree-sitter"
)

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
	scopeLambda
)

type bindingKind int

const (
	bindDef bindingKind = iota
	bindClass
	bindAssign
	bindParam
	bindImport
	bindFromImport
	bindLoop
	bindAlias
	bindAttr
)

// scope is a Python name scope. start and end bound the bytes whose names
// resolve here first; for functions that excludes the name and decorators.
type scope struct {
	kind     scopeKind
	node     *sitter.Node
	mod      *module
	parent   *scope
	children []*scope
	start    uint32
	end      uint32

	bindings map[string][]*binding
	// attrs holds self.x assignments made inside the methods of a class.
	attrs map[string][]*binding
}

// binding is one place a name is bound.
type binding struct {
	name  string
	kind  bindingKind
	ident *sitter.Node
	stmt  *sitter.Node
	value *sitter.Node
	scope *scope

	// module is the imported module for import bindings, imported is the
	// original name for `from m import x as y`.
	module   string
	imported string
}

func newScope(kind scopeKind, node *sitter.Node, m *module, parent *scope, start, end uint32) *scope {
	s := &scope{
		kind:     kind,
		node:     node,
		mod:      m,
		parent:   parent,
		start:    start,
		end:      end,
		bindings: make(map[string][]*binding),
		attrs:    make(map[string][]*binding),
	}
	if parent != nil {
		parent.children = append(parent.children, s)
	}
	return s
}

// at returns the innermost scope containing off.
func (s *scope) at(off uint32) *scope {
	for _, c := range s.children {
		if c.start <= off && off < c.end {
			return c.at(off)
		}
	}
	return s
}

// class returns the class a method scope belongs to.
func (s *scope) class() *scope {
	if s.kind == scopeFunction && s.parent != nil && s.parent.kind == scopeClass {
		return s.parent
	}
	return nil
}

func (s *scope) bind(b *binding) {
	b.scope = s
	s.bindings[b.name] = append(s.bindings[b.name], b)
}

type scopeBuilder struct {
	m *module
}

func buildScopes(m *module) *scope {
	top := newScope(scopeModule, m.root, m, nil, 0, uint32(len(m.src))+1)
	b := &scopeBuilder{m: m}
	for i := 0; i < int(m.root.ChildCount()); i++ {
		b.walk(m.root.Child(i), top)
	}
	return top
}

func (b *scopeBuilder) walk(n *sitter.Node, sc *scope) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "function_definition":
		b.function(n, sc)
		return
	case "class_definition":
		b.class(n, sc)
		return
	case "lambda":
		ls := newScope(scopeLambda, n, b.m, sc, n.StartByte(), n.EndByte())
		if params := n.ChildByFieldName("parameters"); params != nil {
			b.params(params, ls, sc)
		}
		b.walk(n.ChildByFieldName("body"), ls)
		return
	case "assignment":
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		b.targets(left, sc, bindAssign, n, right)
		b.walk(n.ChildByFieldName("type"), sc)
		b.walk(right, sc)
		b.walkRefs(left, sc)
		return
	case "for_statement", "for_in_clause":
		left := n.ChildByFieldName("left")
		b.targets(left, sc, bindLoop, n, nil)
		b.walkExcept(n, left, sc)
		return
	case "as_pattern":
		alias := n.ChildByFieldName("alias")
		b.targets(alias, sc, bindAlias, n, nil)
		b.walkExcept(n, alias, sc)
		return
	case "named_expression":
		name := n.ChildByFieldName("name")
		value := n.ChildByFieldName("value")
		b.targets(name, sc, bindAssign, n, value)
		b.walk(value, sc)
		return
	case "import_statement":
		b.importStatement(n, sc)
		return
	case "import_from_statement":
		b.importFrom(n, sc)
		return
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		b.walk(n.Child(i), sc)
	}
}

func (b *scopeBuilder) walkExcept(n, skip *sitter.Node, sc *scope) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if sameNode(child, skip) {
			continue
		}
		b.walk(child, sc)
	}
}

// walkRefs visits expressions nested in assignment targets, such as the
// object of `a.b = 1` or the index of `a[i] = 1`.
func (b *scopeBuilder) walkRefs(n *sitter.Node, sc *scope) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "attribute":
		b.walk(n.ChildByFieldName("object"), sc)
	case "subscript":
		b.walk(n, sc)
	default:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.walkRefs(n.NamedChild(i), sc)
		}
	}
}

func (b *scopeBuilder) function(n *sitter.Node, sc *scope) {
	name := n.ChildByFieldName("name")
	if name != nil {
		sc.bind(&binding{name: b.m.text(name), kind: bindDef, ident: name, stmt: n})
	}

	params := n.ChildByFieldName("parameters")
	start := n.StartByte()
	if params != nil {
		start = params.StartByte()
	}

	fs := newScope(scopeFunction, n, b.m, sc, start, n.EndByte())
	if params != nil {
		b.params(params, fs, sc)
	}
	b.walk(n.ChildByFieldName("return_type"), sc)
	b.walk(n.ChildByFieldName("body"), fs)
}

func (b *scopeBuilder) class(n *sitter.Node, sc *scope) {
	name := n.ChildByFieldName("name")
	if name != nil {
		sc.bind(&binding{name: b.m.text(name), kind: bindClass, ident: name, stmt: n})
	}

	b.walk(n.ChildByFieldName("superclasses"), sc)

	body := n.ChildByFieldName("body")
	if body == nil {
		return
	}
	cs := newScope(scopeClass, n, b.m, sc, body.StartByte(), n.EndByte())
	b.walk(body, cs)
}

// params binds parameter names in fs. Defaults and annotations are evaluated
// in the enclosing scope.
func (b *scopeBuilder) params(params *sitter.Node, fs, outer *scope) {
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		if ident := paramIdent(p); ident != nil {
			fs.bind(&binding{name: b.m.text(ident), kind: bindParam, ident: ident, stmt: p})
		}
		b.walk(p.ChildByFieldName("value"), outer)
		b.walk(p.ChildByFieldName("type"), outer)
	}
}

// paramIdent finds the bound identifier of one parameter node.
func paramIdent(p *sitter.Node) *sitter.Node {
	switch p.Type() {
	case "identifier":
		return p
	case "default_parameter", "typed_default_parameter":
		if name := p.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
			return name
		}
	case "typed_parameter", "list_splat_pattern", "dictionary_splat_pattern":
		for i := 0; i < int(p.NamedChildCount()); i++ {
			if ident := paramIdent(p.NamedChild(i)); ident != nil {
				return ident
			}
		}
	}
	return nil
}

func (b *scopeBuilder) targets(n *sitter.Node, sc *scope, kind bindingKind, stmt, value *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "identifier":
		sc.bind(&binding{name: b.m.text(n), kind: kind, ident: n, stmt: stmt, value: value})
	case "attribute":
		b.selfAttr(n, sc, stmt, value)
	case "pattern_list", "tuple_pattern", "list_pattern", "tuple", "list",
		"expression_list", "parenthesized_expression", "list_splat_pattern", "list_splat",
		"as_pattern_target":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			b.targets(n.NamedChild(i), sc, kind, stmt, nil)
		}
	}
}

// selfAttr records `self.x = ...` inside a method as an attribute of the
// method's class.
func (b *scopeBuilder) selfAttr(n *sitter.Node, sc *scope, stmt, value *sitter.Node) {
	obj, attr := n.ChildByFieldName("object"), n.ChildByFieldName("attribute")
	if obj == nil || attr == nil || obj.Type() != "identifier" {
		return
	}

	cls := sc.class()
	if cls == nil || b.m.text(obj) != firstParamName(b.m, sc) {
		return
	}

	name := b.m.text(attr)
	cls.attrs[name] = append(cls.attrs[name], &binding{
		name:  name,
		kind:  bindAttr,
		ident: attr,
		stmt:  stmt,
		value: value,
		scope: cls,
	})
}

func firstParamName(m *module, fs *scope) string {
	params := fs.node.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return ""
	}
	if ident := paramIdent(params.NamedChild(0)); ident != nil {
		return m.text(ident)
	}
	return ""
}

func (b *scopeBuilder) importStatement(n *sitter.Node, sc *scope) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			// `import a.b` binds `a`.
			head := child.NamedChild(0)
			if head == nil {
				continue
			}
			sc.bind(&binding{name: b.m.text(head), kind: bindImport, ident: head, stmt: n, module: b.m.text(head)})
		case "aliased_import":
			name, alias := child.ChildByFieldName("name"), child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			sc.bind(&binding{name: b.m.text(alias), kind: bindImport, ident: alias, stmt: n, module: b.m.text(name)})
		}
	}
}

func (b *scopeBuilder) importFrom(n *sitter.Node, sc *scope) {
	moduleName := b.m.text(n.ChildByFieldName("module_name"))

	sawImport := false
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "dotted_name":
			if !sawImport {
				continue
			}
			ident := child.NamedChild(int(child.NamedChildCount()) - 1)
			if ident == nil {
				continue
			}
			name := b.m.text(ident)
			sc.bind(&binding{name: name, kind: bindFromImport, ident: ident, stmt: n, module: moduleName, imported: b.m.text(child)})
		case "aliased_import":
			name, alias := child.ChildByFieldName("name"), child.ChildByFieldName("alias")
			if name == nil || alias == nil {
				continue
			}
			sc.bind(&binding{name: b.m.text(alias), kind: bindFromImport, ident: alias, stmt: n, module: moduleName, imported: b.m.text(name)})
		}
	}
}
