package frontend

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docgraph/internal/lang"
)

// Node is a syntax node together with the file that contains it.
// The zero Node is invalid.
type Node struct {
	File *SourceFile
	N    *sitter.Node
}

// NodeKey identifies a node independently of the *sitter.Node value used to
// reach it. It is comparable and suitable as a map key.
type NodeKey struct {
	Path  string
	Start uint32
	End   uint32
	Type  string
}

// Valid reports whether n refers to a node.
func (n Node) Valid() bool {
	return n.File != nil && n.N != nil
}

// Key returns the identity of n.
func (n Node) Key() NodeKey {
	if !n.Valid() {
		return NodeKey{}
	}
	return NodeKey{Path: n.File.Path, Start: n.N.StartByte(), End: n.N.EndByte(), Type: n.N.Type()}
}

// Type returns the grammar type of n, or "" for an invalid node.
func (n Node) Type() string {
	if !n.Valid() {
		return ""
	}
	return n.N.Type()
}

// Text returns the source text spanned by n.
func (n Node) Text() string {
	if !n.Valid() {
		return ""
	}
	return lang.NodeText(n.N, n.File.Source)
}

// Is reports whether n and o are the same node.
func (n Node) Is(o Node) bool {
	return n.Valid() && o.Valid() && n.Key() == o.Key()
}

func (n Node) wrap(c *sitter.Node) Node {
	if c == nil {
		return Node{}
	}
	return Node{File: n.File, N: c}
}

// Field returns the child stored under a grammar field name.
func (n Node) Field(name string) Node {
	if !n.Valid() {
		return Node{}
	}
	return n.wrap(n.N.ChildByFieldName(name))
}

// Parent returns the enclosing node.
func (n Node) Parent() Node {
	if !n.Valid() {
		return Node{}
	}
	return n.wrap(n.N.Parent())
}

// PrevSibling returns the preceding sibling, named or not.
func (n Node) PrevSibling() Node {
	if !n.Valid() {
		return Node{}
	}
	return n.wrap(n.N.PrevSibling())
}

// Children returns every child, including anonymous tokens.
func (n Node) Children() []Node {
	if !n.Valid() {
		return nil
	}
	out := make([]Node, 0, n.N.ChildCount())
	for i := 0; i < int(n.N.ChildCount()); i++ {
		out = append(out, n.wrap(n.N.Child(i)))
	}
	return out
}

// NamedChildren returns the named children of n.
func (n Node) NamedChildren() []Node {
	if !n.Valid() {
		return nil
	}
	out := make([]Node, 0, n.N.NamedChildCount())
	for i := 0; i < int(n.N.NamedChildCount()); i++ {
		out = append(out, n.wrap(n.N.NamedChild(i)))
	}
	return out
}

// ChildOfType returns the first child of the given type.
func (n Node) ChildOfType(types ...string) Node {
	for _, c := range n.Children() {
		for _, t := range types {
			if c.Type() == t {
				return c
			}
		}
	}
	return Node{}
}

// HasToken reports whether n has an anonymous child token with the given text,
// such as "default" in `export default`.
func (n Node) HasToken(tok string) bool {
	for _, c := range n.Children() {
		if !c.N.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

// Ancestor returns the nearest enclosing node (n included) of one of the given
// types.
func (n Node) Ancestor(types ...string) Node {
	for cur := n; cur.Valid(); cur = cur.Parent() {
		for _, t := range types {
			if cur.Type() == t {
				return cur
			}
		}
	}
	return Node{}
}

// StartByte returns the byte offset at which n begins.
func (n Node) StartByte() int {
	return int(n.N.StartByte())
}
