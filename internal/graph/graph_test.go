package graph

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/docgraph/internal/model"
)

func TestBuildGraph(t *testing.T) {
	t.Parallel()

	refs := []model.Reference{
		{Source: "b", Target: "a", Symbol: "A"},
		{Source: "a", Target: "c", Symbol: "C"},
		{Source: "b", Target: "a", Symbol: "A"},
		{Source: "b", Target: "a", Symbol: "ns.A"},
		{Source: "a", Target: "a", Symbol: "A"},
	}

	want := []model.Dependency{
		{Source: "a", Target: "c", Symbols: []string{"C"}},
		{Source: "b", Target: "a", Symbols: []string{"A", "ns.A"}},
	}
	if diff := cmp.Diff(want, BuildGraph(refs)); diff != "" {
		t.Errorf("BuildGraph mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildGraphNoSelfEdge(t *testing.T) {
	t.Parallel()

	deps := BuildGraph([]model.Reference{{Source: "a", Target: "a", Symbol: "A"}})
	if len(deps) != 0 {
		t.Errorf("expected 0 deps (no self-edges), got %d", len(deps))
	}
}

func TestRankUniform(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		{Slug: "a"},
		{Slug: "b"},
		{Slug: "c"},
	}

	Rank(entries, nil)

	expected := 1.0 / 3.0
	for _, e := range entries {
		if math.Abs(e.Rank-expected) > 1e-9 {
			t.Errorf("%s rank = %f, want %f", e.Slug, e.Rank, expected)
		}
	}
}

func TestRankWithEdges(t *testing.T) {
	t.Parallel()

	entries := []model.Entry{
		{Slug: "a"},
		{Slug: "a-m", Parent: "a"},
		{Slug: "b"},
		{Slug: "b-m", Parent: "b"},
		{Slug: "b-m-p", Parent: "b-m"},
		{Slug: "c"},
	}

	deps := []model.Dependency{
		{Source: "a", Target: "b", Symbols: []string{"B"}},
		{Source: "c", Target: "b", Symbols: []string{"B"}},
	}

	Rank(entries, deps)

	// b is referenced by both a and c; its members follow it.
	var order []string
	for _, e := range entries {
		order = append(order, e.Slug)
	}
	if diff := cmp.Diff([]string{"b", "b-m", "b-m-p"}, order[:3]); diff != "" {
		t.Errorf("rank order mismatch (-want +got):\n%s", diff)
	}

	var sum float64
	for _, e := range entries {
		if e.Parent == "" {
			sum += e.Rank
		}
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Errorf("ranks sum to %f, expected ~1.0", sum)
	}

	if entries[0].Rank <= entries[3].Rank {
		t.Errorf("b rank (%f) should be > %s rank (%f)",
			entries[0].Rank, entries[3].Slug, entries[3].Rank)
	}
	if entries[2].Rank != entries[0].Rank {
		t.Errorf("parameter rank = %f, want its top-level rank %f", entries[2].Rank, entries[0].Rank)
	}
}

func TestRankDeterministic(t *testing.T) {
	t.Parallel()

	build := func() []model.Entry {
		entries := []model.Entry{{Slug: "a"}, {Slug: "b"}, {Slug: "c"}, {Slug: "d"}}
		Rank(entries, []model.Dependency{
			{Source: "a", Target: "b", Symbols: []string{"B"}},
			{Source: "b", Target: "c", Symbols: []string{"C"}},
			{Source: "c", Target: "a", Symbols: []string{"A"}},
			{Source: "d", Target: "a", Symbols: []string{"A"}},
		})
		return entries
	}
	first := build()
	for i := 0; i < 10; i++ {
		if diff := cmp.Diff(first, build()); diff != "" {
			t.Fatalf("Rank is not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()
	Rank(nil, nil) // should not panic
}
