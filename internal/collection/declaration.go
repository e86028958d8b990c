package collection

import (
	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/jsdoc"
	"github.com/phobologic/docgraph/internal/model"
	"github.com/phobologic/docgraph/internal/parse"
)

// Declaration is one documented item: a top-level declaration, a member, or
// a parameter. Declarations are created while the collection is built and
// never change afterwards.
type Declaration struct {
	Node frontend.Node
	Name string
	Kind model.Kind
	ID   string
	Slug string

	Location          model.Location
	CodeLink          string
	DocumentationLink string
	ModuleSpecifier   string
	Group             string // empty when the declaration names no group
	Signature         string
	Documentation     model.Documentation

	// ImportInfo is set for top-level declarations that have a name.
	ImportInfo *model.ImportInfo

	Parent     *Declaration
	Members    []*Declaration
	Parameters []*Declaration

	// References and ReferencedBy link top-level declarations to the other
	// top-level declarations they mention and are mentioned by.
	References   []*Declaration
	ReferencedBy []*Declaration

	comment jsdoc.Comment
	refs    []parse.Ref
	targets []*Declaration // parallel to refs
}

// TopLevel returns the top-level declaration d belongs to, d itself when it
// has no parent.
func (d *Declaration) TopLevel() *Declaration {
	for d.Parent != nil {
		d = d.Parent
	}
	return d
}

// Entry flattens d for serialization. Rank is left for the graph to fill in.
func (d *Declaration) Entry() model.Entry {
	e := model.Entry{
		Slug:      d.Slug,
		Name:      d.Name,
		Kind:      d.Kind,
		Module:    d.ModuleSpecifier,
		Location:  d.Location,
		Signature: d.Signature,
	}
	if d.Parent != nil {
		e.Parent = d.Parent.Slug
	} else {
		e.Group = groupName(d)
	}
	return e
}

// Group is a navigation bucket of top-level declarations.
type Group struct {
	Name         string
	Slug         string
	Declarations []*Declaration
}

func groupName(d *Declaration) string {
	if d.Group == "" {
		return DefaultGroup
	}
	return d.Group
}

func appendUnique(list []*Declaration, d *Declaration) []*Declaration {
	for _, e := range list {
		if e == d {
			return list
		}
	}
	return append(list, d)
}
