package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/docgraph/internal/collection"
	"github.com/phobologic/docgraph/internal/config"
	"github.com/phobologic/docgraph/internal/derrors"
	"github.com/phobologic/docgraph/internal/markdown"
)

func newShowCmd(stdout io.Writer) *cobra.Command {
	var (
		common commonFlags
		pkg    string
		asHTML bool
		links  bool
	)
	cmd := &cobra.Command{
		Use:   "show <slug>",
		Short: "Print the documentation of one declaration",
		Long: `show prints a declaration as markdown: its signature, doc comment with
{@link} tags resolved to documentation links, and its members, parameters and
references.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pkgArgs []string
			if pkg != "" {
				pkgArgs = append(pkgArgs, pkg)
			}
			v, err := bindConfig(cmd, &common, pkgArgs)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			c, err := loadCollection(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			d := c.DeclarationBySlug(args[0])
			if d == nil {
				return fmt.Errorf("%w: no declaration %q", derrors.NotFound, args[0])
			}

			text := renderDeclaration(c, d)
			switch {
			case links:
				for _, l := range markdown.Links(text) {
					fmt.Fprintln(stdout, l)
				}
			case asHTML:
				fmt.Fprint(stdout, markdown.ToHTML(text))
			default:
				fmt.Fprint(stdout, text)
			}
			return nil
		},
	}
	common.register(cmd)
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package name or path (default: current directory)")
	cmd.Flags().BoolVar(&asHTML, "html", false, "render as HTML")
	cmd.Flags().BoolVar(&links, "links", false, "print only the link destinations")
	return cmd
}

// renderDeclaration formats d as a markdown page.
func renderDeclaration(c *collection.Collection, d *collection.Declaration) string {
	resolve := func(target string) (string, bool) {
		if t := c.Resolve(d, target); t != nil {
			return t.DocumentationLink, true
		}
		return "", false
	}
	rewrite := func(s string) string {
		return markdown.RewriteLinks(s, resolve)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	fmt.Fprintf(&b, "- kind: %s\n", d.Kind)
	if pkg := c.Package(); pkg.Version != "" {
		fmt.Fprintf(&b, "- package: %s@%s\n", pkg.Name, pkg.Version)
	} else {
		fmt.Fprintf(&b, "- package: %s\n", pkg.Name)
	}
	if d.ModuleSpecifier != "" {
		fmt.Fprintf(&b, "- module: `%s`\n", d.ModuleSpecifier)
	}
	if d.Parent != nil {
		fmt.Fprintf(&b, "- parent: [%s](%s)\n", d.Parent.Name, d.Parent.DocumentationLink)
	}
	if d.Group != "" {
		fmt.Fprintf(&b, "- group: %s\n", d.Group)
	}
	fmt.Fprintf(&b, "- location: %s\n", d.Location)
	if d.CodeLink != "" {
		fmt.Fprintf(&b, "- source: %s\n", d.CodeLink)
	}
	if d.Signature != "" {
		fmt.Fprintf(&b, "\n```ts\n%s\n```\n", d.Signature)
	}

	doc := d.Documentation
	if doc.Deprecated != nil {
		fmt.Fprintf(&b, "\n**Deprecated.** %s\n", rewrite(*doc.Deprecated))
	}
	if doc.Summary != "" {
		fmt.Fprintf(&b, "\n%s\n", rewrite(doc.Summary))
	}
	for _, r := range doc.Remarks {
		fmt.Fprintf(&b, "\n%s\n", rewrite(r))
	}
	for _, r := range doc.Returns {
		fmt.Fprintf(&b, "\nReturns %s\n", rewrite(r))
	}
	for _, r := range doc.Throws {
		fmt.Fprintf(&b, "\nThrows %s\n", rewrite(r))
	}

	writeList(&b, rewrite, "Parameters", d.Parameters)
	writeList(&b, rewrite, "Members", d.Members)
	writeList(&b, rewrite, "References", d.References)
	writeList(&b, rewrite, "Referenced by", d.ReferencedBy)

	if len(doc.Examples) > 0 {
		b.WriteString("\n## Examples\n")
		for _, e := range doc.Examples {
			fmt.Fprintf(&b, "\n%s\n", e)
		}
	}
	if len(doc.See) > 0 {
		b.WriteString("\n## See also\n\n")
		for _, s := range doc.See {
			fmt.Fprintf(&b, "- %s\n", rewrite(s))
		}
	}
	return b.String()
}

func writeList(b *strings.Builder, rewrite func(string) string, title string, ds []*collection.Declaration) {
	if len(ds) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, d := range ds {
		fmt.Fprintf(b, "- [%s](%s)", d.Name, d.DocumentationLink)
		if summary, _, _ := strings.Cut(d.Documentation.Summary, "\n"); summary != "" {
			fmt.Fprintf(b, ": %s", rewrite(summary))
		}
		b.WriteString("\n")
	}
}
