package ranking

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/docgraph/internal/model"
)

func makeDocMap() *model.DocMap {
	return &model.DocMap{
		Package: "widgets",
		Version: "1.0.0",
		Entries: []model.Entry{
			{Slug: "a", Name: "Alpha", Module: "widgets", Rank: 0.5},
			{Slug: "a-m", Name: "run", Parent: "a", Rank: 0.5},
			{Slug: "a-m-p", Name: "opts", Parent: "a-m", Rank: 0.5},
			{Slug: "b", Name: "Beta", Module: "widgets/extra", Rank: 0.3},
			{Slug: "c", Name: "Gamma", Module: "widgets", Rank: 0.2},
		},
		Groups: []model.GroupEntry{
			{Name: "Core", Slug: "core", Slugs: []string{"a", "c"}},
			{Name: "Other", Slug: "other", Slugs: []string{"b"}},
		},
		Dependencies: []model.Dependency{
			{Source: "a", Target: "b", Symbols: []string{"Beta"}},
			{Source: "a", Target: "c", Symbols: []string{"Gamma"}},
			{Source: "b", Target: "c", Symbols: []string{"Gamma"}},
		},
	}
}

func slugs(dm *model.DocMap) []string {
	var out []string
	for _, e := range dm.Entries {
		out = append(out, e.Slug)
	}
	return out
}

func TestSelectEntriesAll(t *testing.T) {
	t.Parallel()

	dm := makeDocMap()
	for _, n := range []int{0, 3, 5} {
		if got := SelectEntries(dm, n); got != dm {
			t.Errorf("SelectEntries(%d) should return original", n)
		}
	}
}

func TestSelectEntriesSubset(t *testing.T) {
	t.Parallel()

	got := SelectEntries(makeDocMap(), 2)

	if diff := cmp.Diff([]string{"a", "a-m", "a-m-p", "b"}, slugs(got)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	want := []model.Dependency{{Source: "a", Target: "b", Symbols: []string{"Beta"}}}
	if diff := cmp.Diff(want, got.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
	wantGroups := []model.GroupEntry{
		{Name: "Core", Slug: "core", Slugs: []string{"a"}},
		{Name: "Other", Slug: "other", Slugs: []string{"b"}},
	}
	if diff := cmp.Diff(wantGroups, got.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	if got.Package != "widgets" || got.Version != "1.0.0" {
		t.Errorf("package = %q %q", got.Package, got.Version)
	}
}

func TestSelectEntriesOne(t *testing.T) {
	t.Parallel()

	got := SelectEntries(makeDocMap(), 1)
	if diff := cmp.Diff([]string{"a", "a-m", "a-m-p"}, slugs(got)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if len(got.Dependencies) != 0 {
		t.Errorf("expected 0 deps, got %d", len(got.Dependencies))
	}
	if len(got.Groups) != 1 || got.Groups[0].Name != "Core" {
		t.Errorf("groups = %+v", got.Groups)
	}
}

func TestFilterByName(t *testing.T) {
	t.Parallel()

	got := FilterByName(makeDocMap(), "BETA")
	if diff := cmp.Diff([]string{"a", "a-m", "a-m-p", "b", "c"}, slugs(got)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("expected the 2 edges touching b, got %+v", got.Dependencies)
	}

	// Member names do not match.
	if got := FilterByName(makeDocMap(), "run"); len(got.Entries) != 0 {
		t.Errorf("FilterByName(run) = %v", slugs(got))
	}
}

func TestFilterByModule(t *testing.T) {
	t.Parallel()

	got := FilterByModule(makeDocMap(), "extra")
	if diff := cmp.Diff([]string{"b"}, slugs(got)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if len(got.Dependencies) != 2 {
		t.Errorf("expected 2 deps, got %d", len(got.Dependencies))
	}
}
