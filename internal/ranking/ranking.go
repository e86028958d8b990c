// Package ranking selects and filters declarations of a DocMap.
package ranking

import (
	"strings"

	"github.com/phobologic/docgraph/internal/model"
)

// SelectEntries returns a new DocMap with only the top-ranked top-level
// declarations and their members. Entries must already be sorted by rank.
// If maxEntries is <= 0 or covers every top-level declaration, dm is
// returned unchanged.
func SelectEntries(dm *model.DocMap, maxEntries int) *model.DocMap {
	if maxEntries <= 0 {
		return dm
	}

	selected := make(map[string]struct{}, maxEntries)
	total := 0
	for i := range dm.Entries {
		if dm.Entries[i].Parent != "" {
			continue
		}
		total++
		if len(selected) < maxEntries {
			selected[dm.Entries[i].Slug] = struct{}{}
		}
	}
	if maxEntries >= total {
		return dm
	}

	return subset(dm, selected, func(d *model.Dependency) bool {
		_, srcOK := selected[d.Source]
		_, tgtOK := selected[d.Target]
		return srcOK && tgtOK
	})
}

// FilterByName returns a new DocMap containing the top-level declarations
// whose name contains substr (case-insensitive), the declarations they
// reference or are referenced by, all of their members, and the dependency
// edges touching a matched declaration.
func FilterByName(dm *model.DocMap, substr string) *model.DocMap {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	for i := range dm.Entries {
		e := &dm.Entries[i]
		if e.Parent == "" && strings.Contains(strings.ToLower(e.Name), lower) {
			matched[e.Slug] = struct{}{}
		}
	}

	// Expand to the direct neighbours of matched declarations.
	keep := make(map[string]struct{}, len(matched))
	for s := range matched {
		keep[s] = struct{}{}
	}
	for i := range dm.Dependencies {
		d := &dm.Dependencies[i]
		if _, ok := matched[d.Source]; ok {
			keep[d.Target] = struct{}{}
		}
		if _, ok := matched[d.Target]; ok {
			keep[d.Source] = struct{}{}
		}
	}

	return subset(dm, keep, func(d *model.Dependency) bool {
		_, srcOK := matched[d.Source]
		_, tgtOK := matched[d.Target]
		return srcOK || tgtOK
	})
}

// FilterByModule returns a new DocMap containing only the top-level
// declarations whose module specifier contains substr (case-insensitive),
// their members, and every dependency edge touching them.
func FilterByModule(dm *model.DocMap, substr string) *model.DocMap {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	for i := range dm.Entries {
		e := &dm.Entries[i]
		if e.Parent == "" && strings.Contains(strings.ToLower(e.Module), lower) {
			matched[e.Slug] = struct{}{}
		}
	}

	return subset(dm, matched, func(d *model.Dependency) bool {
		_, srcOK := matched[d.Source]
		_, tgtOK := matched[d.Target]
		return srcOK || tgtOK
	})
}

// subset copies dm keeping the top-level entries in keep, every entry nested
// under them, the dependencies keepDep accepts, and the non-empty remainder
// of each group.
func subset(dm *model.DocMap, keep map[string]struct{}, keepDep func(*model.Dependency) bool) *model.DocMap {
	owner := make(map[string]string, len(dm.Entries))
	for i := range dm.Entries {
		owner[dm.Entries[i].Slug] = dm.Entries[i].Parent
	}
	root := func(slug string) string {
		for i := 0; i <= len(owner); i++ {
			p := owner[slug]
			if p == "" {
				return slug
			}
			slug = p
		}
		return slug
	}

	var entries []model.Entry
	for i := range dm.Entries {
		if _, ok := keep[root(dm.Entries[i].Slug)]; ok {
			entries = append(entries, dm.Entries[i])
		}
	}

	var deps []model.Dependency
	for i := range dm.Dependencies {
		d := &dm.Dependencies[i]
		if keepDep(d) {
			deps = append(deps, *d)
		}
	}

	var groups []model.GroupEntry
	for _, g := range dm.Groups {
		var slugs []string
		for _, s := range g.Slugs {
			if _, ok := keep[s]; ok {
				slugs = append(slugs, s)
			}
		}
		if len(slugs) > 0 {
			groups = append(groups, model.GroupEntry{Name: g.Name, Slug: g.Slug, Slugs: slugs})
		}
	}

	return &model.DocMap{
		Package:      dm.Package,
		Version:      dm.Version,
		Entries:      entries,
		Groups:       groups,
		Dependencies: deps,
	}
}
