// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/docgraph/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a DocMap into TOON format. Top-level declarations and
// their nested members are listed in separate tables.
func Encode(dm *model.DocMap) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("package: %s", encodeValue(dm.Package)))
	if dm.Version != "" {
		parts = append(parts, fmt.Sprintf("version: %s", encodeValue(dm.Version)))
	}

	var declRows, memberRows [][]string
	for i := range dm.Entries {
		e := &dm.Entries[i]
		if e.Parent == "" {
			declRows = append(declRows, []string{
				e.Slug,
				e.Name,
				string(e.Kind),
				e.Module,
				e.Location.Path,
				fmt.Sprintf("%d", e.Location.Line),
				fmt.Sprintf("%.4f", e.Rank),
				e.Signature,
			})
			continue
		}
		memberRows = append(memberRows, []string{
			e.Parent,
			e.Slug,
			e.Name,
			string(e.Kind),
			e.Signature,
		})
	}
	parts = append(parts, formatTabular("declarations",
		[]string{"slug", "name", "kind", "module", "path", "line", "rank", "signature"}, declRows))
	parts = append(parts, formatTabular("members",
		[]string{"parent", "slug", "name", "kind", "signature"}, memberRows))

	var groupRows [][]string
	for i := range dm.Groups {
		g := &dm.Groups[i]
		groupRows = append(groupRows, []string{g.Name, g.Slug, strings.Join(g.Slugs, " ")})
	}
	parts = append(parts, formatTabular("groups", []string{"name", "slug", "declarations"}, groupRows))

	var depRows [][]string
	for i := range dm.Dependencies {
		d := &dm.Dependencies[i]
		depRows = append(depRows, []string{
			d.Source,
			d.Target,
			strings.Join(d.Symbols, " "),
		})
	}
	parts = append(parts, formatTabular("dependencies", []string{"source", "target", "symbols"}, depRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
