package collection

import (
	"github.com/phobologic/docgraph/internal/graph"
	"github.com/phobologic/docgraph/internal/model"
	"github.com/phobologic/docgraph/internal/parse"
)

// resolveReferences links every top-level declaration to the other top-level
// declarations its text mentions. Mentions of members resolve to the
// declaration that owns them.
func (c *Collection) resolveReferences() error {
	for _, d := range c.declarations {
		if d.Parent != nil {
			continue
		}
		refs, err := parse.References(d.Node)
		if err != nil {
			return err
		}
		for _, r := range refs {
			target := c.Declaration(r.Node, false)
			if target == nil {
				continue
			}
			target = target.TopLevel()
			if target == d {
				continue
			}
			d.refs = append(d.refs, r)
			d.targets = append(d.targets, target)
			d.References = appendUnique(d.References, target)
			target.ReferencedBy = appendUnique(target.ReferencedBy, d)
		}
	}
	return nil
}

// References returns every resolved mention between top-level declarations,
// in creation order of the mentioning declaration and then source order.
func (c *Collection) References() []model.Reference {
	var out []model.Reference
	for _, d := range c.declarations {
		for i, r := range d.refs {
			out = append(out, model.Reference{
				Source: d.Slug,
				Target: d.targets[i].Slug,
				Symbol: r.Node.Text(),
				Kind:   r.Kind,
				Line:   c.locations.Resolve(r.Node).Line,
			})
		}
	}
	return out
}

// DocMap flattens the collection for serialization. Ranks are zero; see
// graph.Rank.
func (c *Collection) DocMap() *model.DocMap {
	dm := &model.DocMap{Package: c.pkg.Name, Version: c.pkg.Version}
	for _, d := range c.declarations {
		dm.Entries = append(dm.Entries, d.Entry())
	}
	for _, g := range c.groups {
		ge := model.GroupEntry{Name: g.Name, Slug: g.Slug}
		for _, d := range g.Declarations {
			ge.Slugs = append(ge.Slugs, d.Slug)
		}
		dm.Groups = append(dm.Groups, ge)
	}
	dm.Dependencies = graph.BuildGraph(c.References())
	return dm
}
