package collection

import (
	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/jsdoc"
	"github.com/phobologic/docgraph/internal/model"
)

var (
	classMemberTypes = map[string]bool{
		"method_definition":         true,
		"method_signature":          true,
		"abstract_method_signature": true,
		"public_field_definition":   true,
		"index_signature":           true,
		"class_static_block":        true,
	}
	typeMemberTypes = map[string]bool{
		"property_signature":  true,
		"method_signature":    true,
		"call_signature":      true,
		"construct_signature": true,
		"index_signature":     true,
	}
	enumMemberTypes = map[string]bool{
		"property_identifier": true,
		"string":              true,
		"enum_assignment":     true,
	}

	// functionLikeTypes have their own parameter list.
	functionLikeTypes = map[string]bool{
		"function_declaration":           true,
		"function_signature":             true,
		"generator_function_declaration": true,
		"method_definition":              true,
		"method_signature":               true,
		"abstract_method_signature":      true,
		"call_signature":                 true,
		"construct_signature":            true,
		"function_type":                  true,
		"constructor_type":               true,
	}
)

// members collects the members of classes, interfaces, enums, and of type
// aliases or variables whose type is an object literal type.
func (b *builder) members(d *Declaration) ([]*Declaration, error) {
	n := d.Node
	var (
		body    frontend.Node
		kind    model.Kind
		allowed map[string]bool
	)
	switch n.Type() {
	case "class_declaration", "abstract_class_declaration":
		body, kind, allowed = n.Field("body"), model.ClassMember, classMemberTypes
	case "interface_declaration":
		body, kind, allowed = n.Field("body"), model.InterfaceMember, typeMemberTypes
	case "enum_declaration":
		body, kind, allowed = n.Field("body"), model.EnumMember, enumMemberTypes
	case "type_alias_declaration":
		body, kind, allowed = n.Field("value"), model.InterfaceMember, typeMemberTypes
	case "variable_declarator":
		body, kind, allowed = annotatedType(n), model.InterfaceMember, typeMemberTypes
	default:
		return nil, nil
	}
	switch body.Type() {
	case "class_body", "interface_body", "object_type", "enum_body":
	default:
		return nil, nil
	}

	var out []*Declaration
	for _, m := range body.NamedChildren() {
		if !allowed[m.Type()] {
			continue
		}
		if kind == model.ClassMember && isPrivate(m) {
			continue
		}
		comment, _ := jsdoc.For(m)
		md, err := b.add(m, kind, d.ModuleSpecifier, d, comment)
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	return out, nil
}

// isPrivate reports whether a class member is hidden from consumers, either
// by the private modifier or by a #name.
func isPrivate(m frontend.Node) bool {
	if m.Field("name").Type() == "private_property_identifier" {
		return true
	}
	for _, c := range m.NamedChildren() {
		if c.Type() == "accessibility_modifier" && c.Text() == "private" {
			return true
		}
	}
	return false
}

// parameters collects the parameters of function-like declarations and of
// type aliases or variables whose type is a function type.
func (b *builder) parameters(d *Declaration) ([]*Declaration, error) {
	list := parameterList(d.Node)
	if !list.Valid() {
		return nil, nil
	}
	var out []*Declaration
	for _, p := range list.NamedChildren() {
		switch p.Type() {
		case "required_parameter", "optional_parameter":
		default:
			continue
		}
		var comment jsdoc.Comment
		if name := frontend.ParameterName(p); name != "" {
			if text, ok := d.comment.Param(name); ok {
				comment.Summary = text
			}
		}
		pd, err := b.add(p, model.Parameter, d.ModuleSpecifier, d, comment)
		if err != nil {
			return nil, err
		}
		out = append(out, pd)
	}
	return out, nil
}

func parameterList(n frontend.Node) frontend.Node {
	switch n.Type() {
	case "type_alias_declaration":
		n = n.Field("value")
	case "variable_declarator":
		n = annotatedType(n)
	}
	if !functionLikeTypes[n.Type()] {
		return frontend.Node{}
	}
	if params := n.Field("parameters"); params.Type() == "formal_parameters" {
		return params
	}
	return n.ChildOfType("formal_parameters")
}

// annotatedType returns the type written in a declarator's annotation.
func annotatedType(n frontend.Node) frontend.Node {
	t := n.Field("type")
	if t.Type() != "type_annotation" {
		return frontend.Node{}
	}
	for _, c := range t.NamedChildren() {
		return c
	}
	return frontend.Node{}
}
