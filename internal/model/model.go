// Package model defines core data structures for docgraph.
package model

import "fmt"

// Kind classifies a documented declaration.
type Kind string

const (
	Class           Kind = "class"
	Function        Kind = "function"
	Interface       Kind = "interface"
	TypeAlias       Kind = "type-alias"
	Enum            Kind = "enum"
	Variable        Kind = "variable"
	ClassMember     Kind = "class-member"
	InterfaceMember Kind = "interface-member"
	EnumMember      Kind = "enum-member"
	Parameter       Kind = "parameter"
)

// IsTopLevel reports whether declarations of this kind are statements rather
// than members or parameters of another declaration.
func (k Kind) IsTopLevel() bool {
	switch k {
	case Class, Function, Interface, TypeAlias, Enum, Variable:
		return true
	}
	return false
}

// Location is a position in a source file. Path is slash-separated and
// relative to the configured source root; Line and Char are 1-based.
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Char int    `json:"char"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Char)
}

// ImportKind describes the shape of an import clause.
type ImportKind string

const (
	DefaultImport ImportKind = "default" // import X from 'module'
	NamedImport   ImportKind = "named"   // import { X } from 'module'
	StarImport    ImportKind = "star"    // import * as X from 'module'
)

// ImportInfo describes how a symbol is (or would be) imported.
type ImportInfo struct {
	Kind      ImportKind `json:"kind"`
	Name      string     `json:"name"`
	LocalName string     `json:"localName,omitempty"`
	Module    string     `json:"module"`
}

// Tag is a single block tag from a doc comment, e.g. `@see Other`.
type Tag struct {
	Name  string `json:"name"`
	Param string `json:"param,omitempty"` // only for @param
	Text  string `json:"text,omitempty"`
}

// Documentation is the parsed content of a doc comment.
type Documentation struct {
	Summary    string   `json:"summary,omitempty"`
	Remarks    []string `json:"remarks,omitempty"`
	Returns    []string `json:"returns,omitempty"`
	Examples   []string `json:"examples,omitempty"`
	See        []string `json:"see,omitempty"`
	Throws     []string `json:"throws,omitempty"`
	Deprecated *string  `json:"deprecated,omitempty"`
	Tags       []Tag    `json:"tags,omitempty"`
}

// Entry is a flattened declaration, ready for serialization.
type Entry struct {
	Slug      string   `json:"slug"`
	Name      string   `json:"name"`
	Kind      Kind     `json:"kind"`
	Module    string   `json:"module,omitempty"`
	Group     string   `json:"group,omitempty"`
	Parent    string   `json:"parent,omitempty"`
	Location  Location `json:"location"`
	Signature string   `json:"signature,omitempty"`
	Rank      float64  `json:"rank"`
}

// RefKind classifies how one declaration mentions another.
type RefKind string

const (
	TypeRef    RefKind = "type"    // a type annotation or type argument
	ExtendsRef RefKind = "extends" // a class heritage expression
	ValueRef   RefKind = "value"   // a typeof query
)

// Reference is a single resolved mention of Target inside Source, both given
// by slug.
type Reference struct {
	Source string
	Target string
	Symbol string
	Kind   RefKind
	Line   int
}

// Dependency represents an edge in the reference graph:
// Source mentions Target in its declaration.
type Dependency struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Symbols []string `json:"symbols"`
}

// GroupEntry is a navigation bucket of top-level declaration slugs.
type GroupEntry struct {
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Slugs []string `json:"declarations"`
}

// DocMap is the complete analyzed package, ready for serialization.
type DocMap struct {
	Package      string       `json:"package"`
	Version      string       `json:"version,omitempty"`
	Entries      []Entry      `json:"declarations"`
	Groups       []GroupEntry `json:"groups"`
	Dependencies []Dependency `json:"dependencies"`
}
