// Package jsdoc parses documentation comments attached to declarations.
package jsdoc

import (
	"regexp"
	"strings"

	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/model"
)

var (
	linePrefixRe = regexp.MustCompile(`^\s*\*? ?`)
	tagRe        = regexp.MustCompile(`^@([A-Za-z][\w-]*)\s*(.*)$`)
	paramRe      = regexp.MustCompile(`(?s)^(?:\{[^}]*\}\s*)?\[?([\w$.]+)(?:=[^\]]*)?\]?\s*(?:-\s*)?(.*)$`)
)

// Comment is a parsed documentation comment.
type Comment struct {
	Summary string
	Tags    []model.Tag
}

// Parse parses the text of a /** ... */ block. Tag lines inside fenced code
// blocks are treated as text.
func Parse(text string) Comment {
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimSuffix(text, "*/")

	var (
		c       Comment
		summary []string
		cur     *model.Tag
		body    []string
		inFence bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = strings.TrimSpace(strings.Join(body, "\n"))
		if cur.Name == "param" {
			if m := paramRe.FindStringSubmatch(cur.Text); m != nil {
				cur.Param, cur.Text = m[1], strings.TrimSpace(m[2])
			}
		}
		c.Tags = append(c.Tags, *cur)
		cur, body = nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(linePrefixRe.ReplaceAllString(line, ""), " \t\r")
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		if !inFence {
			if m := tagRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				flush()
				cur = &model.Tag{Name: m[1]}
				body = []string{m[2]}
				continue
			}
		}
		if cur != nil {
			body = append(body, line)
		} else {
			summary = append(summary, line)
		}
	}
	flush()
	c.Summary = strings.TrimSpace(strings.Join(summary, "\n"))
	return c
}

// Has reports whether the comment carries a tag with the given name.
func (c Comment) Has(name string) bool {
	_, ok := c.Tag(name)
	return ok
}

// Tag returns the first tag with the given name.
func (c Comment) Tag(name string) (model.Tag, bool) {
	for _, t := range c.Tags {
		if t.Name == name {
			return t, true
		}
	}
	return model.Tag{}, false
}

// Texts returns the text of every tag with one of the given names.
func (c Comment) Texts(names ...string) []string {
	var out []string
	for _, t := range c.Tags {
		for _, n := range names {
			if t.Name == n {
				out = append(out, t.Text)
			}
		}
	}
	return out
}

// Param returns the description given by `@param name`.
func (c Comment) Param(name string) (string, bool) {
	for _, t := range c.Tags {
		if t.Name == "param" && t.Param == name {
			return t.Text, true
		}
	}
	return "", false
}

// Group returns the text of the first @group tag.
func (c Comment) Group() string {
	t, _ := c.Tag("group")
	return t.Text
}

// Documentation converts the comment to its serializable form.
func (c Comment) Documentation() model.Documentation {
	d := model.Documentation{
		Summary:  c.Summary,
		Remarks:  c.Texts("remarks"),
		Returns:  c.Texts("returns", "return"),
		Examples: c.Texts("example"),
		See:      c.Texts("see"),
		Throws:   c.Texts("throws"),
		Tags:     c.Tags,
	}
	if t, ok := c.Tag("deprecated"); ok {
		d.Deprecated = &t.Text
	}
	return d
}

// For returns the documentation comment attached to a declaration node: the
// /** */ comment immediately before it, or before the export, ambient, or
// variable statement wrapping it.
func For(n frontend.Node) (Comment, bool) {
	target := n
	for {
		p := target.Parent()
		switch p.Type() {
		case "export_statement", "ambient_declaration", "lexical_declaration", "variable_declaration":
			target = p
			continue
		}
		break
	}
	prev := target.PrevSibling()
	if prev.Type() != "comment" || !strings.HasPrefix(prev.Text(), "/**") {
		return Comment{}, false
	}
	return Parse(prev.Text()), true
}
