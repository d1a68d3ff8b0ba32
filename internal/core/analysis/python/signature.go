package python

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hay-kot/pysense/internal/core/overlay"
)

// maxScanBack bounds the bracket scan used when the tree has no usable call.
const maxScanBack = 4096

var keywordArg = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*=(?:[^=]|$)`)

// callee is the function a call resolves to. fn is nil for classes without
// an __init__.
type callee struct {
	fn        *binding
	dropFirst bool
}

// callable resolves the function expression of a call.
func (q *query) callable(m *module, fn *sitter.Node) *callee {
	if fn == nil {
		return nil
	}

	var (
		bs       []*binding
		viaAttr  bool
		viaClass bool
	)

	switch {
	case isName(fn):
		bs = m.gotoBindings(m.text(fn), fn.StartByte())
	case fn.Type() == "attribute":
		obj, attr := fn.ChildByFieldName("object"), fn.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return nil
		}
		viaAttr = true
		if obj.Type() == "identifier" {
			for _, b := range m.gotoBindings(m.text(obj), obj.StartByte()) {
				if b.kind == bindClass {
					viaClass = true
				}
			}
		}
		bs = q.resolveAttr(m, obj, m.text(attr), 0)
	default:
		return nil
	}

	seen := make(map[*binding]bool)
	for _, t := range q.followAll(bs, 0, seen) {
		if t.b == nil {
			continue
		}
		switch t.b.kind {
		case bindDef:
			inClass := t.b.scope.kind == scopeClass
			decorators := decoratorNames(t.b.scope.mod, t.b.stmt)
			switch {
			case !inClass || decorators["staticmethod"]:
				return &callee{fn: t.b}
			case decorators["classmethod"]:
				return &callee{fn: t.b, dropFirst: true}
			default:
				return &callee{fn: t.b, dropFirst: viaAttr && !viaClass}
			}
		case bindClass:
			cls := classScope(t.b)
			if cls == nil {
				return &callee{}
			}
			for _, init := range q.classMember(cls, "__init__", 0) {
				if init.kind == bindDef {
					return &callee{fn: init, dropFirst: true}
				}
			}
			return &callee{}
		}
	}

	return nil
}

func decoratorNames(m *module, def *sitter.Node) map[string]bool {
	names := make(map[string]bool)
	parent := def.Parent()
	if parent == nil || parent.Type() != "decorated_definition" {
		return names
	}
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child.Type() != "decorator" {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(m.text(child), "@"))
		if j := strings.IndexByte(name, '('); j >= 0 {
			name = name[:j]
		}
		names[name] = true
	}
	return names
}

// paramTexts returns the parameter snippets of a def.
func paramTexts(b *binding) []string {
	m := b.scope.mod
	params := b.stmt.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	out := make([]string, 0, params.NamedChildCount())
	for i := 0; i < int(params.NamedChildCount()); i++ {
		p := params.NamedChild(i)
		switch p.Type() {
		case "comment", "keyword_separator", "positional_separator":
			continue
		}
		out = append(out, flatten(m.text(p)))
	}
	return out
}

// signature returns the call enclosing off, or nil.
func (q *query) signature(m *module, off uint32) *overlay.Signature {
	open, fn, ok := m.callAt(off)
	if !ok {
		return nil
	}

	params, ok := q.paramsFor(m, fn)
	if !ok {
		return nil
	}

	row, col := m.position(open)
	return &overlay.Signature{
		Name:   flatten(m.text(fn)),
		Row:    row,
		Column: col,
		Params: params,
		Index:  activeIndex(string(m.src[open+1:off]), params),
	}
}

func (q *query) paramsFor(m *module, fn *sitter.Node) ([]string, bool) {
	if c := q.callable(m, fn); c != nil {
		if c.fn == nil {
			return []string{}, true
		}
		params := paramTexts(c.fn)
		if c.dropFirst && len(params) > 0 {
			params = params[1:]
		}
		return params, true
	}

	if isName(fn) {
		if _, bs := m.lookup(m.text(fn), fn.StartByte()); len(bs) == 0 {
			if params, ok := builtinSignatures[m.text(fn)]; ok {
				return append([]string(nil), params...), true
			}
		}
	}

	return nil, false
}

// callAt finds the opening bracket and function expression of the call the
// cursor is inside. The tree is tried first; code that is still being typed
// often parses into error nodes, so a bracket scan over the raw text is the
// fallback.
func (m *module) callAt(off uint32) (uint32, *sitter.Node, bool) {
	at := off
	if at >= uint32(len(m.src)) && at > 0 {
		at = uint32(len(m.src)) - 1
	}

	for n := m.leafAt(at); n != nil; n = n.Parent() {
		if n.Type() != "argument_list" && n.Type() != "generator_expression" {
			continue
		}
		call := n.Parent()
		if call == nil || call.Type() != "call" || !sameNode(call.ChildByFieldName("arguments"), n) {
			continue
		}

		open := n.StartByte()
		if m.src[open] != '(' || off <= open {
			continue
		}
		if off < n.EndByte() || !closedCall(m, n) {
			return open, call.ChildByFieldName("function"), true
		}
	}

	open, ok := scanOpenParen(m.src, off)
	if !ok {
		return 0, nil, false
	}
	fn := m.calleeBefore(open)
	if fn == nil {
		return 0, nil, false
	}
	return open, fn, true
}

func closedCall(m *module, args *sitter.Node) bool {
	end := args.EndByte()
	if end == 0 || m.src[end-1] != ')' {
		return false
	}
	last := args.Child(int(args.ChildCount()) - 1)
	return last != nil && !last.IsMissing()
}

// scanOpenParen walks backwards from off to the nearest unmatched opening
// bracket and reports it when it is a parenthesis.
func scanOpenParen(src []byte, off uint32) (uint32, bool) {
	depth := 0
	stop := 0
	if int(off) > maxScanBack {
		stop = int(off) - maxScanBack
	}

	for i := int(off) - 1; i >= stop; i-- {
		if i >= len(src) {
			continue
		}
		switch src[i] {
		case ')', ']', '}':
			depth++
		case '(', '[', '{':
			if depth == 0 {
				return uint32(i), src[i] == '('
			}
			depth--
		}
	}
	return 0, false
}

// calleeBefore returns the name or attribute immediately before an opening
// bracket.
func (m *module) calleeBefore(open uint32) *sitter.Node {
	i := int(open) - 1
	for i >= 0 && (m.src[i] == ' ' || m.src[i] == '\t') {
		i--
	}
	if i < 0 {
		return nil
	}

	leaf := m.leafAt(uint32(i))
	if leaf == nil || !isName(leaf) {
		return nil
	}
	if attributeObject(leaf) != nil {
		return leaf.Parent()
	}
	return leaf
}

// isName reports whether n is a plain name. An unterminated print(...) or
// exec(...) parses as a Python 2 statement, leaving the name as a keyword
// token instead of an identifier.
func isName(n *sitter.Node) bool {
	switch n.Type() {
	case "identifier":
		return true
	case "print", "exec":
		return n.ChildCount() == 0
	}
	return false
}

// activeIndex maps the argument text between the opening bracket and the
// cursor to a parameter index.
func activeIndex(args string, params []string) int {
	pos, current := splitArgs(args)

	if m := keywordArg.FindStringSubmatch(strings.TrimSpace(current)); m != nil {
		for i, p := range params {
			if paramName(p) == m[1] && !strings.HasPrefix(p, "*") {
				return i
			}
		}
		for i, p := range params {
			if strings.HasPrefix(p, "**") {
				return i
			}
		}
		return overlay.NoIndex
	}

	for i, p := range params {
		if i > pos {
			break
		}
		if strings.HasPrefix(p, "*") && !strings.HasPrefix(p, "**") {
			return i
		}
	}
	return pos
}

// splitArgs counts top-level commas in args and returns the text of the
// argument being typed.
func splitArgs(args string) (int, string) {
	var (
		depth int
		quote byte
		count int
		start int
	)

	for i := 0; i < len(args); i++ {
		c := args[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				count++
				start = i + 1
			}
		}
	}

	return count, args[start:]
}

// paramName strips stars, annotations and defaults from a parameter snippet.
func paramName(p string) string {
	p = strings.TrimLeft(p, "*")
	if i := strings.IndexAny(p, ":= "); i >= 0 {
		p = p[:i]
	}
	return p
}
