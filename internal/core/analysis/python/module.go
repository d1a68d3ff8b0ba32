package python

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// module is one parsed source file. Trees are owned by the query that parsed
// them and closed with it.
type module struct {
	path       string
	src        []byte
	tree       *sitter.Tree
	root       *sitter.Node
	lineStarts []uint32
	top        *scope
}

func parseModule(ctx context.Context, path string, src []byte) (*module, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	m := &module{
		path:       path,
		src:        src,
		tree:       tree,
		root:       tree.RootNode(),
		lineStarts: lineStarts(src),
	}
	m.top = buildScopes(m)

	return m, nil
}

func (m *module) close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

func lineStarts(src []byte) []uint32 {
	starts := []uint32{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return starts
}

// offset converts a 1-indexed row and 0-indexed byte column into a byte
// offset, clamping the column to the row's length.
func (m *module) offset(row, col int) (uint32, bool) {
	if row < 1 || row > len(m.lineStarts) {
		return 0, false
	}

	start := m.lineStarts[row-1]
	end := uint32(len(m.src))
	if row < len(m.lineStarts) {
		end = m.lineStarts[row] - 1
	}

	if col < 0 {
		col = 0
	}

	off := start + uint32(col)
	if off > end {
		off = end
	}
	return off, true
}

// position converts a byte offset into a 1-indexed row and 0-indexed column.
func (m *module) position(off uint32) (int, int) {
	i := sort.Search(len(m.lineStarts), func(i int) bool { return m.lineStarts[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(off - m.lineStarts[i])
}

func (m *module) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(m.src)
}

// leafAt returns the smallest node, named or not, containing off.
func (m *module) leafAt(off uint32) *sitter.Node {
	n := m.root
	for {
		var next *sitter.Node
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if child.StartByte() <= off && off < child.EndByte() {
				next = child
				break
			}
		}
		if next == nil {
			return n
		}
		n = next
	}
}

// nameAt returns the identifier or keyword under the cursor, also accepting a
// cursor placed just past the end of a name.
func (m *module) nameAt(off uint32) *sitter.Node {
	candidates := []uint32{off}
	if off > 0 {
		candidates = append(candidates, off-1)
	}

	for _, o := range candidates {
		leaf := m.leafAt(o)
		if leaf == nil {
			continue
		}
		if leaf.Type() == "identifier" || isKeyword(leaf) {
			return leaf
		}
	}
	return nil
}

func isKeyword(n *sitter.Node) bool {
	return n.ChildCount() == 0 && keywords[n.Type()]
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// walk calls fn for n and its descendants in document order. Returning false
// from fn skips the node's children.
func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), fn)
	}
}

// firstLine returns the first line of s with surrounding whitespace removed.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// flatten collapses runs of whitespace, including newlines, into one space.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
