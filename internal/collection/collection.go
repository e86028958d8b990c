// Package collection builds the set of documented declarations exported by a
// package and answers lookups against it.
package collection

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/phobologic/docgraph/internal/derrors"
	"github.com/phobologic/docgraph/internal/frontend"
	"github.com/phobologic/docgraph/internal/jsdoc"
	"github.com/phobologic/docgraph/internal/lang"
	"github.com/phobologic/docgraph/internal/location"
	"github.com/phobologic/docgraph/internal/manifest"
	"github.com/phobologic/docgraph/internal/model"
	"github.com/phobologic/docgraph/internal/parse"
	"github.com/phobologic/docgraph/internal/slug"
)

const (
	DefaultSourceRoot        = "."
	DefaultDocumentationRoot = "/code"
	DefaultGroup             = "Other"

	unnamed = "Unnamed"
)

// Repository locates the commit code links point into.
type Repository struct {
	URL string
	SHA string
}

// Options configure New. Only Package is required.
type Options struct {
	Package           *manifest.Package
	SourceRoot        string
	DocumentationRoot string
	Repository        *Repository

	// CodeLink overrides the link built from Repository.
	CodeLink func(model.Location) string
	// GroupName overrides the @group tag.
	GroupName func(*Declaration) string
	// DeclarationSort orders declarations within a group; the default is by
	// name.
	DeclarationSort func(a, b *Declaration) int
	// GroupSort orders groups; the default is by name.
	GroupSort func(a, b *Group) int

	Logger *log.Logger
}

// Collection is the immutable result of analyzing a package. It is safe for
// concurrent readers.
type Collection struct {
	pkg       *manifest.Package
	program   *frontend.Program
	locations *location.Resolver
	logger    *log.Logger

	declarations []*Declaration // creation order
	byNode       map[frontend.NodeKey]*Declaration
	bySlug       map[string]*Declaration
	groups       []*Group
	groupBySlug  map[string]*Group
}

// New compiles the package's entry points and collects every declaration
// they export, directly or through re-exports.
func New(ctx context.Context, opts Options) (_ *Collection, err error) {
	defer derrors.Wrap(&err, "collection.New")

	if opts.Package == nil || len(opts.Package.EntryPoints) == 0 {
		return nil, fmt.Errorf("%w: package has no entry points", derrors.InvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.SourceRoot == "" {
		opts.SourceRoot = DefaultSourceRoot
	}
	if opts.DocumentationRoot == "" {
		opts.DocumentationRoot = DefaultDocumentationRoot
	}
	if opts.CodeLink == nil && opts.Repository != nil && opts.Repository.URL != "" {
		opts.CodeLink = repositoryLink(*opts.Repository)
	}

	program, err := frontend.Load(ctx, opts.Package.Paths())
	if err != nil {
		return nil, err
	}
	c := &Collection{
		pkg:         opts.Package,
		program:     program,
		locations:   location.New(opts.SourceRoot, opts.Logger),
		logger:      opts.Logger,
		byNode:      make(map[frontend.NodeKey]*Declaration),
		bySlug:      make(map[string]*Declaration),
		groupBySlug: make(map[string]*Group),
	}
	b := &builder{
		c:       c,
		opts:    &opts,
		slugs:   slug.NewRegistry(),
		visited: make(map[*frontend.SourceFile]bool),
	}
	for _, e := range opts.Package.EntryPoints {
		if err := ctx.Err(); err != nil {
			program.Close()
			return nil, err
		}
		f := program.File(e.Path)
		if err := derrors.Invariant(f != nil, "entry point %s was not compiled", e.Path); err != nil {
			program.Close()
			return nil, err
		}
		if err := b.walkFile(f, opts.Package.Specifier(e)); err != nil {
			program.Close()
			return nil, err
		}
	}
	if err := c.resolveReferences(); err != nil {
		program.Close()
		return nil, err
	}
	c.buildGroups(opts.DeclarationSort, opts.GroupSort)
	return c, nil
}

// Close releases the compiled program. Declarations stay readable but their
// nodes must no longer be used.
func (c *Collection) Close() {
	c.program.Close()
}

// Package returns the analyzed package.
func (c *Collection) Package() *manifest.Package {
	return c.pkg
}

// Program returns the compiled program the declarations belong to.
func (c *Collection) Program() *frontend.Program {
	return c.program
}

func repositoryLink(r Repository) func(model.Location) string {
	return func(loc model.Location) string {
		u, err := url.Parse(r.URL)
		if err != nil {
			return ""
		}
		u.Path = path.Join(u.Path, "blob", r.SHA, loc.Path)
		return u.String() + "#L" + strconv.Itoa(loc.Line)
	}
}

// builder holds the state used only while a Collection is constructed.
type builder struct {
	c       *Collection
	opts    *Options
	slugs   *slug.Registry
	visited map[*frontend.SourceFile]bool
}

// walkFile collects the exports of f. Each file is walked once, so export
// cycles terminate.
func (b *builder) walkFile(f *frontend.SourceFile, spec string) error {
	if b.visited[f] {
		return nil
	}
	b.visited[f] = true
	for _, stmt := range f.Statements() {
		if stmt.Type() != "export_statement" {
			continue
		}
		if err := b.walkExport(f, stmt, spec); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) walkExport(f *frontend.SourceFile, stmt frontend.Node, spec string) error {
	if src := stmt.Field("source"); src.Valid() {
		target := lang.Unquote(src.Text())
		if !frontend.IsLocal(target) {
			return nil
		}
		next := b.c.program.ResolveModule(target, f)
		if next == nil {
			loc, _ := b.c.Location(stmt)
			b.c.logger.Warn("failed to resolve re-export", "specifier", target, "from", loc)
			return nil
		}
		return b.walkFile(next, spec)
	}

	if decl := stmt.Field("declaration"); decl.Valid() {
		requireName := !stmt.HasToken("default")
		for _, d := range frontend.DeclaredNodes(decl) {
			if err := b.addTopLevel(d, spec, requireName); err != nil {
				return err
			}
		}
		return nil
	}

	var names []frontend.Node
	if v := stmt.Field("value"); v.Type() == "identifier" {
		names = append(names, v)
	}
	if clause := stmt.ChildOfType("export_clause"); clause.Valid() {
		for _, s := range clause.NamedChildren() {
			if s.Type() == "export_specifier" {
				names = append(names, s.Field("name"))
			}
		}
	}
	for _, name := range names {
		sym, ok := b.c.program.AliasedSymbol(b.c.program.SymbolAt(name))
		if !ok {
			continue
		}
		for _, d := range sym.Declarations {
			if err := b.addTopLevel(d, spec, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// topLevelKinds maps the declaration node types that are documented at the
// top level to their kind. Namespaces and ambient modules are not.
var topLevelKinds = map[string]model.Kind{
	"class_declaration":              model.Class,
	"abstract_class_declaration":     model.Class,
	"function_declaration":           model.Function,
	"function_signature":             model.Function,
	"generator_function_declaration": model.Function,
	"interface_declaration":          model.Interface,
	"type_alias_declaration":         model.TypeAlias,
	"enum_declaration":               model.Enum,
	"variable_declarator":            model.Variable,
}

func (b *builder) addTopLevel(n frontend.Node, spec string, requireName bool) error {
	kind, ok := topLevelKinds[n.Type()]
	if !ok {
		return nil
	}
	if _, done := b.c.byNode[n.Key()]; done {
		return nil
	}
	comment, _ := jsdoc.For(n)
	if comment.Has("internal") {
		return nil
	}
	if _, named := slug.Name(n); requireName {
		loc, _ := b.c.Location(n)
		if err := derrors.Invariant(named, "%s: exported %s has no name", loc, n.Type()); err != nil {
			return err
		}
	}
	_, err := b.add(n, kind, spec, nil, comment)
	return err
}

// add creates the declaration for n, registers it, and then collects its
// members and parameters beneath it.
func (b *builder) add(n frontend.Node, kind model.Kind, spec string, parent *Declaration, comment jsdoc.Comment) (*Declaration, error) {
	loc := b.c.locations.Resolve(statementStart(n))
	if kind == model.Parameter {
		if err := derrors.Invariant(slug.ParameterIndex(n) >= 0, "%s: parameter outside a parameter list", loc); err != nil {
			return nil, err
		}
	}
	name, named := slug.Name(n)
	if !named {
		name = unnamed
	}
	var parentSlug string
	if parent != nil {
		parentSlug = parent.Slug
	}
	s, renamed := b.slugs.Claim(slug.For(n, parentSlug))
	if renamed {
		b.c.logger.Warn("duplicate slug", "name", name, "slug", s, "location", loc)
	}

	d := &Declaration{
		Node:              n,
		Name:              name,
		Kind:              kind,
		ID:                slug.NodeID(n),
		Slug:              s,
		Location:          loc,
		DocumentationLink: path.Join(b.opts.DocumentationRoot, s),
		ModuleSpecifier:   spec,
		Group:             comment.Group(),
		Signature:         parse.Signature(n),
		Documentation:     comment.Documentation(),
		Parent:            parent,
		comment:           comment,
	}
	if b.opts.CodeLink != nil {
		d.CodeLink = b.opts.CodeLink(loc)
	}
	if parent == nil && named {
		d.ImportInfo = &model.ImportInfo{Kind: model.NamedImport, Name: name, Module: spec}
	}
	if b.opts.GroupName != nil {
		d.Group = b.opts.GroupName(d)
	}
	b.c.register(d)

	var err error
	if d.Members, err = b.members(d); err != nil {
		return nil, err
	}
	if d.Parameters, err = b.parameters(d); err != nil {
		return nil, err
	}
	return d, nil
}

// statementStart returns the outermost export or declare wrapper of a
// declaration statement, so that its location includes the modifiers.
func statementStart(n frontend.Node) frontend.Node {
	for p := n.Parent(); p.Type() == "export_statement" || p.Type() == "ambient_declaration"; p = p.Parent() {
		n = p
	}
	return n
}

func (c *Collection) register(d *Declaration) {
	c.declarations = append(c.declarations, d)
	c.byNode[d.Node.Key()] = d
	c.bySlug[d.Slug] = d
}
