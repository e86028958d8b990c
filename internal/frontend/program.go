// Package frontend parses TypeScript declaration sources with tree-sitter and
// binds names to the nodes that declare them.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/docgraph/internal/derrors"
	"github.com/phobologic/docgraph/internal/lang"
)

// SourceFile is one parsed file of a Program.
type SourceFile struct {
	Path   string // absolute, cleaned
	Source []byte
	Lang   *lang.Language

	tree  *sitter.Tree
	scope *scope
}

// Root returns the program node of the file.
func (f *SourceFile) Root() Node {
	return Node{File: f, N: f.tree.RootNode()}
}

// Statements returns the top-level statements of the file in source order.
// Comments are not statements.
func (f *SourceFile) Statements() []Node {
	var out []Node
	for _, n := range f.Root().NamedChildren() {
		if n.Type() != "comment" {
			out = append(out, n)
		}
	}
	return out
}

// Diagnostic is a single problem reported while compiling a file.
type Diagnostic struct {
	Path    string
	Line    int
	Char    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Line, d.Char, d.Message)
}

// CompileError reports every syntax problem found in a Program.
type CompileError struct {
	Diagnostics []Diagnostic
}

func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compilation error")
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		b.WriteString(d.String())
	}
	return b.String()
}

func (e *CompileError) Unwrap() error {
	return derrors.Compile
}

// Program is the set of files reachable from a list of entry points through
// local import and export specifiers. It is immutable once loaded.
type Program struct {
	files   map[string]*SourceFile
	modules map[*SourceFile]*Symbol
}

// Load parses the entry points and every file they reach through local
// ("./" or "../") module specifiers. Files are parsed breadth-first with each
// level parsed in parallel. A syntax error in any file fails the load with a
// *CompileError.
func Load(ctx context.Context, entryPoints []string) (_ *Program, err error) {
	defer derrors.Wrap(&err, "frontend.Load")

	if len(entryPoints) == 0 {
		return nil, fmt.Errorf("%w: expected at least one entry point", derrors.InvalidArgument)
	}

	p := &Program{
		files:   make(map[string]*SourceFile),
		modules: make(map[*SourceFile]*Symbol),
	}
	seen := make(map[string]bool)
	var level []string
	for _, ep := range entryPoints {
		abs, err := filepath.Abs(ep)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(abs); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: entry point %s", derrors.NotFound, ep)
			}
			return nil, err
		}
		if !seen[abs] {
			seen[abs] = true
			level = append(level, abs)
		}
	}

	for len(level) > 0 {
		parsed, err := parseLevel(ctx, level)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, f := range parsed {
			p.files[f.Path] = f
			for _, spec := range moduleSpecifiers(f) {
				target := resolveOnDisk(spec, f.Path)
				if target == "" || seen[target] {
					continue
				}
				seen[target] = true
				next = append(next, target)
			}
		}
		level = next
	}

	var diags []Diagnostic
	for _, f := range p.Files() {
		diags = append(diags, syntaxDiagnostics(f)...)
	}
	if len(diags) > 0 {
		p.Close()
		return nil, &CompileError{Diagnostics: diags}
	}

	for _, f := range p.Files() {
		f.scope = bindFile(f)
		p.modules[f] = &Symbol{Name: f.Path, Declarations: []Node{f.Root()}, file: f, module: f}
	}
	return p, nil
}

// parseLevel parses paths concurrently. Each goroutine uses its own parser,
// since tree-sitter parsers are not safe for concurrent use.
func parseLevel(ctx context.Context, paths []string) ([]*SourceFile, error) {
	out := make([]*SourceFile, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			l := lang.ForPath(path)
			if l == nil {
				return fmt.Errorf("%w: unsupported file type %s", derrors.InvalidArgument, path)
			}
			source, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			tree, err := l.NewParser().ParseCtx(ctx, nil, source)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			out[i] = &SourceFile{Path: path, Source: source, Lang: l, tree: tree}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// moduleSpecifiers returns the local module specifiers named by top-level
// import and export statements of f.
func moduleSpecifiers(f *SourceFile) []string {
	var specs []string
	for _, stmt := range f.Statements() {
		switch stmt.Type() {
		case "import_statement", "export_statement":
			src := stmt.Field("source")
			if !src.Valid() {
				continue
			}
			if spec := lang.Unquote(src.Text()); IsLocal(spec) {
				specs = append(specs, spec)
			}
		}
	}
	return specs
}

// IsLocal reports whether a module specifier is relative to the importing
// file rather than naming an external package.
func IsLocal(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// candidates lists the paths a local specifier may refer to, in the order they
// are tried.
func candidates(spec, from string) []string {
	base := filepath.Join(filepath.Dir(from), filepath.FromSlash(spec))
	var out []string
	if stem, ok := strings.CutSuffix(base, ".js"); ok {
		out = append(out, stem+".ts", stem+".d.ts", stem+".tsx")
	}
	out = append(out,
		base,
		base+".ts",
		base+".d.ts",
		base+".tsx",
		filepath.Join(base, "index.ts"),
		filepath.Join(base, "index.d.ts"),
	)
	return out
}

func resolveOnDisk(spec, from string) string {
	for _, c := range candidates(spec, from) {
		if lang.ForPath(c) == nil {
			continue
		}
		if info, err := os.Stat(c); err == nil && info.Mode().IsRegular() {
			return c
		}
	}
	return ""
}

// ResolveModule returns the program file a local specifier in from refers to,
// or nil when the specifier is external or names a file outside the program.
func (p *Program) ResolveModule(spec string, from *SourceFile) *SourceFile {
	if !IsLocal(spec) {
		return nil
	}
	for _, c := range candidates(spec, from.Path) {
		if f := p.files[c]; f != nil {
			return f
		}
	}
	return nil
}

// File returns the program file at path, or nil.
func (p *Program) File(path string) *SourceFile {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil
	}
	return p.files[abs]
}

// Files returns every file of the program sorted by path.
func (p *Program) Files() []*SourceFile {
	out := make([]*SourceFile, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Close releases the syntax trees.
func (p *Program) Close() {
	for _, f := range p.files {
		f.tree.Close()
	}
}

func syntaxDiagnostics(f *SourceFile) []Diagnostic {
	root := f.tree.RootNode()
	if !root.HasError() {
		return nil
	}
	var diags []Diagnostic
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			diags = append(diags, f.diagnostic(n, fmt.Sprintf("missing %s", n.Type())))
			return
		case n.Type() == "ERROR":
			diags = append(diags, f.diagnostic(n, "syntax error"))
			return
		case !n.HasError():
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return diags
}

func (f *SourceFile) diagnostic(n *sitter.Node, msg string) Diagnostic {
	pt := n.StartPoint()
	return Diagnostic{
		Path:    f.Path,
		Line:    int(pt.Row) + 1,
		Char:    int(pt.Column) + 1,
		Message: msg,
	}
}
