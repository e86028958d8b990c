package collection

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/phobologic/docgraph/internal/slug"
)

// buildGroups buckets the top-level declarations by group name. Without
// custom orderings, groups and their declarations sort by name in English
// collation order, with slugs breaking ties.
func (c *Collection) buildGroups(declSort func(a, b *Declaration) int, groupSort func(a, b *Group) int) {
	coll := collate.New(language.English, collate.Loose)
	if declSort == nil {
		declSort = func(a, b *Declaration) int {
			if r := coll.CompareString(a.Name, b.Name); r != 0 {
				return r
			}
			return strings.Compare(a.Slug, b.Slug)
		}
	}
	if groupSort == nil {
		groupSort = func(a, b *Group) int {
			if r := coll.CompareString(a.Name, b.Name); r != 0 {
				return r
			}
			return strings.Compare(a.Name, b.Name)
		}
	}

	byName := make(map[string]*Group)
	for _, d := range c.declarations {
		if d.Parent != nil {
			continue
		}
		name := groupName(d)
		g := byName[name]
		if g == nil {
			g = &Group{Name: name, Slug: slug.Slugify(name)}
			byName[name] = g
			c.groups = append(c.groups, g)
		}
		g.Declarations = append(g.Declarations, d)
	}

	sort.SliceStable(c.groups, func(i, j int) bool {
		return groupSort(c.groups[i], c.groups[j]) < 0
	})
	for _, g := range c.groups {
		sort.SliceStable(g.Declarations, func(i, j int) bool {
			return declSort(g.Declarations[i], g.Declarations[j]) < 0
		})
		if _, taken := c.groupBySlug[g.Slug]; !taken {
			c.groupBySlug[g.Slug] = g
		}
	}
}

// Groups returns the groups in display order.
func (c *Collection) Groups() []*Group {
	return c.groups
}

// GroupBySlug returns the group with the given slug, or nil.
func (c *Collection) GroupBySlug(s string) *Group {
	return c.groupBySlug[s]
}
