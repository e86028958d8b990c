// Package slug derives stable identifiers and URL slugs for declaration nodes.
package slug

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/lang"
)

var (
	camelRe    = regexp.MustCompile(`[a-z][A-Z]`)
	nonAlnumRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// Slugify lowercases text, splits camel-case words, and collapses every run
// of other characters into a single dash.
func Slugify(text string) string {
	text = camelRe.ReplaceAllStringFunc(text, func(s string) string {
		return s[:1] + "-" + s[1:]
	})
	text = nonAlnumRe.ReplaceAllString(text, "-")
	return strings.ToLower(strings.Trim(text, "-"))
}

// NodeID returns a short identifier derived from the node's file and offset.
func NodeID(n frontend.Node) string {
	h := sha1.New()
	h.Write([]byte(n.File.Path))
	h.Write([]byte(strconv.Itoa(n.StartByte())))
	return "node-" + hex.EncodeToString(h.Sum(nil))[:5]
}

// KindName returns the name of the syntactic kind of n, such as
// "ClassDeclaration" or "MethodSignature". Members are named by the context
// they appear in: a method signature in a class body is a MethodDeclaration.
func KindName(n frontend.Node) string {
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration":
		return "ClassDeclaration"
	case "function_declaration", "function_signature", "generator_function_declaration":
		return "FunctionDeclaration"
	case "interface_declaration":
		return "InterfaceDeclaration"
	case "type_alias_declaration":
		return "TypeAliasDeclaration"
	case "enum_declaration":
		return "EnumDeclaration"
	case "variable_declarator":
		return "VariableDeclaration"
	case "required_parameter", "optional_parameter":
		return "Parameter"
	case "enum_assignment", "property_identifier", "string":
		return "EnumMember"
	case "public_field_definition":
		return "PropertyDeclaration"
	case "property_signature":
		return "PropertySignature"
	case "index_signature":
		return "IndexSignature"
	case "call_signature":
		return "CallSignature"
	case "construct_signature":
		return "ConstructSignature"
	case "class_static_block":
		return "ClassStaticBlockDeclaration"
	case "method_definition", "method_signature", "abstract_method_signature":
		if isConstructor(n) {
			return "Constructor"
		}
		switch {
		case n.HasToken("get"):
			return "GetAccessor"
		case n.HasToken("set"):
			return "SetAccessor"
		case n.Type() == "method_signature" && n.Parent().Type() != "class_body":
			return "MethodSignature"
		}
		return "MethodDeclaration"
	}
	return "Unknown"
}

func isConstructor(n frontend.Node) bool {
	name := n.Field("name")
	return n.Parent().Type() == "class_body" && name.Type() == "property_identifier" && name.Text() == "constructor"
}

// Name returns the display name of a declaration node: its lexical name when
// it has one, or a synthesized name for parameters, constructors, and index
// signatures. It reports false when no name can be given.
func Name(n frontend.Node) (string, bool) {
	switch n.Type() {
	case "required_parameter", "optional_parameter":
		if name := frontend.ParameterName(n); name != "" {
			return name, true
		}
		return fmt.Sprintf("arg%d", ParameterIndex(n)), true
	case "construct_signature":
		return "constructor", true
	case "index_signature":
		return indexSignatureName(n), true
	case "property_identifier":
		// enum member without initializer
		return n.Text(), true
	case "string":
		return n.Text(), true
	}
	if isConstructor(n) {
		return "constructor", true
	}
	name := n.Field("name")
	switch name.Type() {
	case "":
		return "", false
	case "string":
		return `"` + strings.Trim(name.Text(), `"'`) + `"`, true
	}
	return name.Text(), true
}

// ParameterIndex returns the position of a parameter within its parameter
// list, or -1 when n is not in one.
func ParameterIndex(n frontend.Node) int {
	list := n.Parent()
	if list.Type() != "formal_parameters" {
		return -1
	}
	i := 0
	for _, c := range list.NamedChildren() {
		if c.Is(n) {
			return i
		}
		switch c.Type() {
		case "required_parameter", "optional_parameter":
			i++
		}
	}
	return -1
}

// indexSignatureName describes an index signature by the text between its
// brackets, e.g. "Index [key: string]".
func indexSignatureName(n frontend.Node) string {
	var open, close frontend.Node
	for _, c := range n.Children() {
		switch {
		case c.Type() == "[" && !open.Valid():
			open = c
		case c.Type() == "]":
			close = c
		}
	}
	if !open.Valid() || !close.Valid() {
		return "Index []"
	}
	key := string(n.File.Source[open.N.EndByte():close.N.StartByte()])
	return "Index [" + lang.CollapseWhitespace(key) + "]"
}

// For returns the slug of n: its kind name followed by its slugified name.
// Members and parameters pass the slug of their parent declaration, which
// prefixes the result.
func For(n frontend.Node, parentSlug string) string {
	name, ok := Name(n)
	if !ok {
		name = NodeID(n)
	}
	s := KindName(n) + "-" + Slugify(name)
	if parentSlug != "" {
		s = parentSlug + "-" + s
	}
	return s
}

// Registry hands out slugs that are unique within one collection.
type Registry struct {
	used map[string]bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{used: make(map[string]bool)}
}

// Claim reserves s. When s is already taken it reserves the first free slug
// of the form s-2, s-3, ... instead and reports that it had to disambiguate.
func (r *Registry) Claim(s string) (string, bool) {
	if !r.used[s] {
		r.used[s] = true
		return s, false
	}
	for i := 2; ; i++ {
		c := s + "-" + strconv.Itoa(i)
		if !r.used[c] {
			r.used[c] = true
			return c, true
		}
	}
}
