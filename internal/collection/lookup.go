package collection

import (
	"strings"

	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/lang"
	"github.com/phobologic/docgraph/internal/model"
)

// Declaration returns the declaration a name reference resolves to, or nil
// when it resolves to nothing in the collection. With followAlias the
// reference is first followed through import and export aliases; without it,
// only names bound by an import are followed.
func (c *Collection) Declaration(ref frontend.Node, followAlias bool) *Declaration {
	return c.declarationOf(c.program.SymbolAt(ref), followAlias)
}

func (c *Collection) declarationOf(sym *frontend.Symbol, followAlias bool) *Declaration {
	if sym == nil {
		return nil
	}
	if followAlias {
		target, ok := c.program.AliasedSymbol(sym)
		if !ok {
			return nil
		}
		sym = target
	}
	if len(sym.Declarations) == 0 {
		return nil
	}
	first := sym.Declarations[0]
	if !followAlias && sym.IsAlias() && first.Ancestor("import_statement").Valid() {
		return c.declarationOf(sym, true)
	}
	for _, d := range sym.Declarations {
		if decl := c.byNode[d.Key()]; decl != nil {
			return decl
		}
	}
	return nil
}

// ImportInfo describes how the name at ref was imported. It reports false
// when the name is not bound by an import.
func (c *Collection) ImportInfo(ref frontend.Node) (model.ImportInfo, bool) {
	sym := c.program.SymbolAt(ref)
	if sym == nil || len(sym.Declarations) == 0 {
		return model.ImportInfo{}, false
	}
	decl := sym.Declarations[0]
	stmt := decl.Ancestor("import_statement")
	if !stmt.Valid() {
		return model.ImportInfo{}, false
	}
	module := lang.Unquote(stmt.Field("source").Text())

	switch decl.Type() {
	case "import_specifier":
		info := model.ImportInfo{
			Kind:   model.NamedImport,
			Name:   lang.Unquote(decl.Field("name").Text()),
			Module: module,
		}
		if alias := decl.Field("alias"); alias.Valid() {
			info.LocalName = alias.Text()
		}
		return info, true
	case "namespace_import":
		return model.ImportInfo{
			Kind:   model.StarImport,
			Name:   decl.ChildOfType("identifier").Text(),
			Module: module,
		}, true
	case "identifier":
		return model.ImportInfo{Kind: model.DefaultImport, Name: decl.Text(), Module: module}, true
	}
	return model.ImportInfo{}, false
}

// DeclarationBySlug returns the declaration with the given slug, or nil.
func (c *Collection) DeclarationBySlug(s string) *Declaration {
	return c.bySlug[s]
}

// Declarations returns every declaration in creation order: each top-level
// declaration followed by its members and parameters.
func (c *Collection) Declarations() []*Declaration {
	return c.declarations
}

// TopLevel returns the top-level declarations in creation order.
func (c *Collection) TopLevel() []*Declaration {
	var out []*Declaration
	for _, d := range c.declarations {
		if d.Kind.IsTopLevel() {
			out = append(out, d)
		}
	}
	return out
}

// Location returns the location of n and its code link. Registered
// declarations report their recorded location; any other node is resolved
// through the source map of its file and has no code link.
func (c *Collection) Location(n frontend.Node) (model.Location, string) {
	if d := c.byNode[n.Key()]; d != nil {
		return d.Location, d.CodeLink
	}
	return c.locations.Resolve(n), ""
}

// Resolve finds the declaration a doc comment link target names, as seen from
// the file of from. Targets may be dotted ("Widget.render") to name a member.
// Names that are not in scope fall back to a top-level declaration of that
// name anywhere in the collection.
func (c *Collection) Resolve(from *Declaration, name string) *Declaration {
	if from != nil {
		if d := c.declarationOf(c.program.Lookup(from.Node.File, name), true); d != nil {
			return d
		}
	}
	if head, member, ok := strings.Cut(name, "."); ok {
		if owner := c.Resolve(from, head); owner != nil {
			for _, m := range owner.Members {
				if m.Name == member {
					return m
				}
			}
		}
		return nil
	}
	for _, d := range c.declarations {
		if d.Parent == nil && d.Name == name {
			return d
		}
	}
	return nil
}
