package frontend

import (
	"github.com/phobologic/docgraph/internal/lang"
)

// Symbol is the binding of a name to the nodes that declare it.
//
// An alias symbol is introduced by an import or export specifier and stands
// for a symbol declared elsewhere; AliasedSymbol follows it. A module symbol
// stands for the namespace object of a whole file.
type Symbol struct {
	Name         string
	Declarations []Node

	file   *SourceFile
	alias  *aliasTarget
	module *SourceFile
}

type aliasTarget struct {
	specifier string // "" for a name in the declaring file's own scope
	name      string // exported name, "*" for the module namespace
}

// IsAlias reports whether s refers to another symbol.
func (s *Symbol) IsAlias() bool { return s.alias != nil }

// Module returns the file s stands for when s is a module symbol.
func (s *Symbol) Module() *SourceFile { return s.module }

type scope struct {
	locals      map[string]*Symbol
	exports     map[string]*Symbol
	starExports []string
	byNode      map[NodeKey]*Symbol
}

// declarationTypes are node types whose "name" field declares a name.
var declarationTypes = map[string]bool{
	"class_declaration":              true,
	"abstract_class_declaration":     true,
	"function_declaration":           true,
	"function_signature":             true,
	"generator_function_declaration": true,
	"interface_declaration":          true,
	"type_alias_declaration":         true,
	"enum_declaration":               true,
	"variable_declarator":            true,
	"internal_module":                true,
	"module":                         true,
	"type_parameter":                 true,
	"property_signature":             true,
	"method_signature":               true,
	"method_definition":              true,
	"abstract_method_signature":      true,
	"public_field_definition":        true,
	"enum_assignment":                true,
}

// DeclaredNodes returns the declarations a top-level statement introduces,
// with export and ambient wrappers removed. A variable statement yields one
// node per declarator.
func DeclaredNodes(stmt Node) []Node {
	switch stmt.Type() {
	case "export_statement":
		return DeclaredNodes(stmt.Field("declaration"))
	case "ambient_declaration":
		for _, c := range stmt.NamedChildren() {
			if nodes := DeclaredNodes(c); len(nodes) > 0 {
				return nodes
			}
		}
		return nil
	case "lexical_declaration", "variable_declaration":
		var out []Node
		for _, c := range stmt.NamedChildren() {
			if c.Type() == "variable_declarator" {
				out = append(out, c)
			}
		}
		return out
	case "class_declaration", "abstract_class_declaration",
		"function_declaration", "function_signature", "generator_function_declaration",
		"interface_declaration", "type_alias_declaration", "enum_declaration",
		"internal_module", "module":
		return []Node{stmt}
	}
	return nil
}

// exportName returns the name a module export name node denotes.
func exportName(n Node) string {
	return lang.Unquote(n.Text())
}

func bindFile(f *SourceFile) *scope {
	sc := &scope{
		locals:  make(map[string]*Symbol),
		exports: make(map[string]*Symbol),
		byNode:  make(map[NodeKey]*Symbol),
	}
	for _, stmt := range f.Statements() {
		switch stmt.Type() {
		case "import_statement":
			sc.bindImport(f, stmt)
		case "export_statement":
			sc.bindExport(f, stmt)
		default:
			for _, d := range DeclaredNodes(stmt) {
				sc.declare(f, d)
			}
		}
	}
	return sc
}

func (sc *scope) declare(f *SourceFile, d Node) *Symbol {
	name := d.Field("name")
	switch name.Type() {
	case "identifier", "type_identifier", "nested_identifier":
	default:
		// destructuring patterns and `declare module "x"` bind no single name
		return nil
	}
	key := name.Text()
	sym := sc.locals[key]
	if sym == nil || sym.alias != nil {
		sym = &Symbol{Name: key, file: f}
		sc.locals[key] = sym
	}
	sym.Declarations = append(sym.Declarations, d)
	sc.byNode[d.Key()] = sym
	return sym
}

func (sc *scope) bindImport(f *SourceFile, stmt Node) {
	spec := lang.Unquote(stmt.Field("source").Text())
	clause := stmt.ChildOfType("import_clause")
	if !clause.Valid() {
		return
	}
	add := func(local string, decl Node, imported string) {
		sym := &Symbol{
			Name:         local,
			Declarations: []Node{decl},
			file:         f,
			alias:        &aliasTarget{specifier: spec, name: imported},
		}
		sc.locals[local] = sym
		sc.byNode[decl.Key()] = sym
	}
	for _, c := range clause.NamedChildren() {
		switch c.Type() {
		case "identifier":
			add(c.Text(), c, "default")
		case "namespace_import":
			add(c.ChildOfType("identifier").Text(), c, "*")
		case "named_imports":
			for _, s := range c.NamedChildren() {
				if s.Type() != "import_specifier" {
					continue
				}
				name := s.Field("name")
				local := name
				if a := s.Field("alias"); a.Valid() {
					local = a
				}
				add(local.Text(), s, exportName(name))
			}
		}
	}
}

func (sc *scope) bindExport(f *SourceFile, stmt Node) {
	if decl := stmt.Field("declaration"); decl.Valid() {
		isDefault := stmt.HasToken("default")
		for _, d := range DeclaredNodes(decl) {
			sym := sc.declare(f, d)
			if sym == nil {
				if !isDefault {
					continue
				}
				sym = &Symbol{Name: "default", Declarations: []Node{d}, file: f}
				sc.byNode[d.Key()] = sym
			}
			if isDefault {
				sc.exports["default"] = sym
			} else {
				sc.exports[sym.Name] = sym
			}
		}
		return
	}

	if v := stmt.Field("value"); v.Valid() {
		if v.Type() == "identifier" {
			sc.exports["default"] = &Symbol{
				Name:         "default",
				Declarations: []Node{stmt},
				file:         f,
				alias:        &aliasTarget{name: v.Text()},
			}
		}
		return
	}

	var spec string
	if src := stmt.Field("source"); src.Valid() {
		spec = lang.Unquote(src.Text())
	}

	if clause := stmt.ChildOfType("export_clause"); clause.Valid() {
		for _, s := range clause.NamedChildren() {
			if s.Type() != "export_specifier" {
				continue
			}
			name := exportName(s.Field("name"))
			exported := name
			if a := s.Field("alias"); a.Valid() {
				exported = exportName(a)
			}
			sym := &Symbol{
				Name:         exported,
				Declarations: []Node{s},
				file:         f,
				alias:        &aliasTarget{specifier: spec, name: name},
			}
			sc.exports[exported] = sym
			sc.byNode[s.Key()] = sym
		}
		return
	}

	if ns := stmt.ChildOfType("namespace_export"); ns.Valid() {
		var exported string
		for _, c := range ns.NamedChildren() {
			exported = exportName(c)
		}
		sym := &Symbol{
			Name:         exported,
			Declarations: []Node{ns},
			file:         f,
			alias:        &aliasTarget{specifier: spec, name: "*"},
		}
		sc.exports[exported] = sym
		sc.byNode[ns.Key()] = sym
		return
	}

	if spec != "" {
		sc.starExports = append(sc.starExports, spec)
	}
}

// SymbolAt returns the symbol bound to a name reference: an identifier, a type
// identifier, the right-hand side of a qualified name, a declaration name, or
// a name inside an import or export specifier. It returns nil when nothing in
// the program binds the name.
func (p *Program) SymbolAt(ref Node) *Symbol {
	if !ref.Valid() || ref.File.scope == nil {
		return nil
	}
	sc := ref.File.scope
	parent := ref.Parent()

	switch parent.Type() {
	case "import_specifier", "export_specifier", "namespace_import", "namespace_export":
		return sc.byNode[parent.Key()]
	case "import_clause":
		return sc.byNode[ref.Key()]
	case "nested_type_identifier", "nested_identifier", "member_expression":
		left := parent.Field("module")
		if !left.Valid() {
			left = parent.Field("object")
		}
		if !left.Is(ref) {
			return p.qualified(left, ref.Text())
		}
	}

	if owner := declarationOwner(ref, parent); owner.Valid() {
		if sym := sc.byNode[owner.Key()]; sym != nil {
			return sym
		}
		return &Symbol{Name: ref.Text(), Declarations: []Node{owner}, file: ref.File}
	}

	name := ref.Text()
	for n := parent; n.Valid(); n = n.Parent() {
		if decl := boundIn(n, name); decl.Valid() {
			return &Symbol{Name: name, Declarations: []Node{decl}, file: ref.File}
		}
	}
	return sc.locals[name]
}

// Lookup resolves a possibly dotted name ("Foo" or "ns.Foo") against the
// top-level scope of f.
func (p *Program) Lookup(f *SourceFile, name string) *Symbol {
	if f == nil || f.scope == nil {
		return nil
	}
	head, rest := name, ""
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			head, rest = name[:i], name[i+1:]
			break
		}
	}
	sym := f.scope.locals[head]
	if sym == nil || rest == "" {
		return sym
	}
	target, ok := p.AliasedSymbol(sym)
	if !ok || target.module == nil {
		return nil
	}
	return p.Lookup(target.module, rest)
}

func (p *Program) qualified(left Node, name string) *Symbol {
	if left.Type() != "identifier" {
		return nil
	}
	sym := p.SymbolAt(left)
	if sym == nil {
		return nil
	}
	target, ok := p.AliasedSymbol(sym)
	if !ok || target.module == nil {
		return nil
	}
	return p.exportOf(target.module, name, make(map[*SourceFile]bool))
}

// declarationOwner returns the declaration whose name is ref.
func declarationOwner(ref, parent Node) Node {
	switch parent.Type() {
	case "required_parameter", "optional_parameter":
		if parent.Field("pattern").Is(ref) {
			return parent
		}
		return Node{}
	case "rest_pattern":
		if gp := parent.Parent(); gp.Type() == "required_parameter" {
			return gp
		}
		return Node{}
	case "enum_body":
		return ref
	}
	if declarationTypes[parent.Type()] && parent.Field("name").Is(ref) {
		return parent
	}
	return Node{}
}

// boundIn returns the parameter or type parameter of n named name.
func boundIn(n Node, name string) Node {
	if params := n.Field("parameters"); params.Type() == "formal_parameters" {
		for _, param := range params.NamedChildren() {
			if ParameterName(param) == name {
				return param
			}
		}
	}
	if tps := n.Field("type_parameters"); tps.Valid() {
		for _, tp := range tps.NamedChildren() {
			if tp.Type() == "type_parameter" && tp.Field("name").Text() == name {
				return tp
			}
		}
	}
	return Node{}
}

// ParameterName returns the identifier a parameter binds, or "" for
// destructuring patterns.
func ParameterName(param Node) string {
	switch param.Type() {
	case "required_parameter", "optional_parameter":
	default:
		return ""
	}
	pat := param.Field("pattern")
	switch pat.Type() {
	case "identifier", "this":
		return pat.Text()
	case "rest_pattern":
		return pat.ChildOfType("identifier").Text()
	}
	return ""
}

// AliasedSymbol follows import and export aliases from sym to the symbol they
// finally denote. It reports false when the chain leaves the program, names a
// missing export, or loops.
func (p *Program) AliasedSymbol(sym *Symbol) (*Symbol, bool) {
	seen := make(map[*Symbol]bool)
	for sym != nil && sym.alias != nil {
		if seen[sym] {
			return nil, false
		}
		seen[sym] = true
		sym = p.resolveAlias(sym)
	}
	return sym, sym != nil
}

func (p *Program) resolveAlias(sym *Symbol) *Symbol {
	if sym.alias.specifier == "" {
		local := sym.file.scope.locals[sym.alias.name]
		if local == sym {
			return nil
		}
		return local
	}
	target := p.ResolveModule(sym.alias.specifier, sym.file)
	if target == nil {
		return nil
	}
	if sym.alias.name == "*" {
		return p.modules[target]
	}
	return p.exportOf(target, sym.alias.name, make(map[*SourceFile]bool))
}

// exportOf finds the symbol f exports under name, searching `export *`
// targets depth-first in source order.
func (p *Program) exportOf(f *SourceFile, name string, seen map[*SourceFile]bool) *Symbol {
	if seen[f] {
		return nil
	}
	seen[f] = true
	if sym := f.scope.exports[name]; sym != nil {
		return sym
	}
	if name == "default" {
		return nil
	}
	for _, spec := range f.scope.starExports {
		if target := p.ResolveModule(spec, f); target != nil {
			if sym := p.exportOf(target, name, seen); sym != nil {
				return sym
			}
		}
	}
	return nil
}
