// Package parse extracts references and signatures from declaration syntax
// using tree-sitter.
package parse

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/lang"
	"github.com/phobologic/docgraph/internal/model"
)

var captureMap = map[string]model.RefKind{
	"reference.type":  model.TypeRef,
	"reference.class": model.ExtendsRef,
	"reference.value": model.ValueRef,
}

// Ref is a name inside a declaration that may denote another declaration.
type Ref struct {
	Node frontend.Node
	Kind model.RefKind
}

// References returns the names mentioned inside n, in source order. Each
// name node appears once even when several query patterns capture it.
func References(n frontend.Node) ([]Ref, error) {
	if !n.Valid() || n.File.Lang == nil {
		return nil, nil
	}
	query, err := n.File.Lang.GetReferenceQuery()
	if err != nil {
		return nil, err
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, n.N)

	seen := make(map[frontend.NodeKey]bool)
	var refs []Ref
	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, n.File.Source)
		for _, c := range match.Captures {
			kind, ok := captureMap[query.CaptureNameForId(c.Index)]
			if !ok {
				continue
			}
			ref := frontend.Node{File: n.File, N: c.Node}
			if seen[ref.Key()] {
				continue
			}
			seen[ref.Key()] = true
			refs = append(refs, Ref{Node: ref, Kind: kind})
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].Node.StartByte() < refs[j].Node.StartByte()
	})
	return refs, nil
}

// Signature returns the one-line header of a declaration: its source text
// up to the body, with whitespace collapsed and trailing separators removed.
func Signature(n frontend.Node) string {
	if !n.Valid() {
		return ""
	}
	start, end := n.N.StartByte(), n.N.EndByte()
	if body := n.Field("body"); body.Valid() {
		end = body.N.StartByte()
	}
	sig := lang.CollapseWhitespace(string(n.File.Source[start:end]))
	return strings.TrimRight(sig, ";, ")
}
