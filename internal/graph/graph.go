// Package graph builds the reference graph between declarations and ranks
// them with PageRank.
package graph

import (
	"math"
	"sort"

	"github.com/phobologic/docgraph/internal/model"
)

// BuildGraph merges individual references into one dependency per
// (source, target) pair, listing each referenced symbol once.
func BuildGraph(refs []model.Reference) []model.Dependency {
	type edgeKey struct{ src, tgt string }
	edgeSymbols := make(map[edgeKey][]string)
	var order []edgeKey

	for _, r := range refs {
		if r.Source == r.Target {
			continue // no self-edges
		}
		key := edgeKey{r.Source, r.Target}
		syms, ok := edgeSymbols[key]
		if !ok {
			order = append(order, key)
		}
		if !contains(syms, r.Symbol) {
			edgeSymbols[key] = append(syms, r.Symbol)
		}
	}

	deps := make([]model.Dependency, 0, len(order))
	for _, key := range order {
		deps = append(deps, model.Dependency{
			Source:  key.src,
			Target:  key.tgt,
			Symbols: edgeSymbols[key],
		})
	}

	sort.Slice(deps, func(i, j int) bool {
		if deps[i].Source != deps[j].Source {
			return deps[i].Source < deps[j].Source
		}
		return deps[i].Target < deps[j].Target
	})

	return deps
}

// Rank applies PageRank to the top-level entries and sorts entries by rank
// descending. Members and parameters carry the rank of the top-level
// declaration they belong to, so they stay next to it.
func Rank(entries []model.Entry, deps []model.Dependency) {
	if len(entries) == 0 {
		return
	}

	parents := make(map[string]string, len(entries))
	nodes := make(map[string]struct{})
	for i := range entries {
		if entries[i].Parent == "" {
			nodes[entries[i].Slug] = struct{}{}
		} else {
			parents[entries[i].Slug] = entries[i].Parent
		}
	}
	if len(nodes) == 0 {
		return
	}

	var ranks map[string]float64
	if len(deps) == 0 {
		uniform := 1.0 / float64(len(nodes))
		ranks = make(map[string]float64, len(nodes))
		for n := range nodes {
			ranks[n] = uniform
		}
	} else {
		// Each referenced symbol is an edge.
		outEdges := make(map[string][]string)
		outDegree := make(map[string]int)
		for _, d := range deps {
			if _, ok := nodes[d.Source]; !ok {
				continue
			}
			if _, ok := nodes[d.Target]; !ok {
				continue
			}
			for range d.Symbols {
				outEdges[d.Source] = append(outEdges[d.Source], d.Target)
				outDegree[d.Source]++
			}
		}
		ranks = pageRank(nodes, outEdges, outDegree, 0.85, 100, 1e-6)
	}

	for i := range entries {
		entries[i].Rank = ranks[topLevel(entries[i].Slug, parents)]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank > entries[j].Rank
	})
}

func topLevel(slug string, parents map[string]string) string {
	for i := 0; i < len(parents)+1; i++ {
		p, ok := parents[slug]
		if !ok {
			return slug
		}
		slug = p
	}
	return slug
}

func pageRank(
	nodes map[string]struct{},
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	// Iterate in sorted order so the floating-point sums are reproducible.
	order := sortedKeys(nodes)
	sources := make([]string, 0, len(outEdges))
	for src := range outEdges {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for _, node := range order {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (nodes with no outgoing edges)
		var danglingSum float64
		for _, node := range order {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for _, node := range order {
			newRank[node] = teleport + danglingContrib
		}

		// Distribute rank through edges
		for _, src := range sources {
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range outEdges[src] {
				newRank[tgt] += contrib
			}
		}

		// Check convergence
		var diff float64
		for _, node := range order {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
