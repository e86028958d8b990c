// Package markdown turns doc comment text into markdown with resolved
// declaration links.
package markdown

import (
	"regexp"
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
)

// linkRe matches inline link tags: {@link Target}, {@link Target | text}
// and {@link Target text}, along with the linkcode and linkplain variants.
var linkRe = regexp.MustCompile(`\{@(link|linkcode|linkplain)\s+([^\s|}]+)\s*(?:\|\s*)?([^}]*)\}`)

// Resolver returns the URL a link target points to. ok is false when the
// target names nothing that can be linked.
type Resolver func(target string) (href string, ok bool)

func newParser() *gmparser.Parser {
	return gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
}

// RewriteLinks replaces inline link tags with markdown links. URLs are linked
// as they are; other targets go through resolve, and targets it cannot
// resolve become plain text. Tags quoted inside code spans or code blocks
// are left alone.
func RewriteLinks(src string, resolve Resolver) string {
	if !strings.Contains(src, "{@link") {
		return src
	}
	code := codeLiterals(src)

	return linkRe.ReplaceAllStringFunc(src, func(tag string) string {
		for _, c := range code {
			if strings.Contains(c, tag) {
				return tag
			}
		}
		m := linkRe.FindStringSubmatch(tag)
		variant, target, text := m[1], m[2], strings.TrimSpace(m[3])
		if text == "" {
			text = target
			if variant == "linkcode" {
				text = "`" + target + "`"
			}
		}
		if isURL(target) {
			return "[" + text + "](" + target + ")"
		}
		if resolve != nil {
			if href, ok := resolve(target); ok {
				return "[" + text + "](" + href + ")"
			}
		}
		return text
	})
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// codeLiterals returns the text of every code span and code block in src.
func codeLiterals(src string) []string {
	doc := gm.Parse([]byte(src), newParser())
	var out []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Code:
			out = append(out, string(n.Literal))
		case *ast.CodeBlock:
			out = append(out, string(n.Literal))
		}
		return ast.GoToNext
	})
	return out
}

// Links returns the destinations of the markdown links in src, in order and
// without duplicates.
func Links(src string) []string {
	doc := gm.Parse([]byte(src), newParser())
	seen := make(map[string]bool)
	var out []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if !seen[dest] {
				seen[dest] = true
				out = append(out, dest)
			}
		}
		return ast.GoToNext
	})
	return out
}

// ToHTML renders markdown to an HTML fragment.
func ToHTML(src string) string {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return string(gm.ToHTML([]byte(src), newParser(), renderer))
}
