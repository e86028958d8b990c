// docgraph prints a ranked map of the declarations a TypeScript package
// exports, in TOON or JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phobologic/docgraph/internal/collection"
	"github.com/phobologic/docgraph/internal/config"
	"github.com/phobologic/docgraph/internal/derrors"
	"github.com/phobologic/docgraph/internal/discover"
	"github.com/phobologic/docgraph/internal/graph"
	"github.com/phobologic/docgraph/internal/manifest"
	"github.com/phobologic/docgraph/internal/model"
	"github.com/phobologic/docgraph/internal/ranking"
	"github.com/phobologic/docgraph/internal/toon"
)

var version = "dev"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// commonFlags are the settings shared by every command that builds a
// collection. Unset flags fall back to docgraph.toml and the environment.
type commonFlags struct {
	configDir  string
	sourceRoot string
	docsRoot   string
	repository string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configDir, "config", "", "directory holding docgraph.toml")
	cmd.Flags().StringVar(&f.sourceRoot, "source-root", "", "directory locations are relative to (default: workspace root)")
	cmd.Flags().StringVar(&f.docsRoot, "docs-root", config.DefaultDocumentationRoot, "path documentation links start with")
	cmd.Flags().StringVar(&f.repository, "repository", "", "repository URL for code links")
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		verbose bool
		common  commonFlags
		name    string
		module  string
	)

	root := &cobra.Command{
		Use:   "docgraph [package]",
		Short: "Map the declarations a TypeScript package exports",
		Long: `docgraph reads a package's declaration files, collects every exported
declaration with its members and parameters, and prints them ranked by how
central they are to the package's reference graph.

package is a package name looked up in node_modules, or a path to a package
directory or package.json. It defaults to the current directory.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(stderr, level))
			ctx = collection.WithHandle(ctx, collection.NewHandle())
			cmd.SetContext(ctx)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if h, ok := collection.HandleFromContext(cmd.Context()); ok {
				h.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindConfig(cmd, &common, args)
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

			dm := c.DocMap()
			graph.Rank(dm.Entries, dm.Dependencies)
			if name != "" {
				dm = ranking.FilterByName(dm, name)
			}
			if module != "" {
				dm = ranking.FilterByModule(dm, module)
			}
			dm = ranking.SelectEntries(dm, cfg.MaxDeclarations)
			return writeDocMap(stdout, dm, cfg.Format)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("docgraph {{.Version}}\n")

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	common.register(root)
	root.Flags().StringP("format", "f", "toon", "output format: toon or json")
	root.Flags().IntP("max", "n", 0, "maximum number of top-level declarations (0 for all)")
	root.Flags().StringVar(&name, "name", "", "only declarations whose name contains this, plus their neighbours")
	root.Flags().StringVar(&module, "module", "", "only declarations whose module specifier contains this")

	root.AddCommand(newShowCmd(stdout))
	root.AddCommand(newInitCmd(stdout, stderr))
	return root
}

// bindConfig layers flags over the config file, environment, and defaults.
// args holds the optional package argument.
func bindConfig(cmd *cobra.Command, f *commonFlags, args []string) (*viper.Viper, error) {
	var v *viper.Viper
	if f.configDir != "" {
		v = config.New(f.configDir)
	} else {
		v = config.New()
	}
	bindings := map[string]string{
		"format":      "format",
		"max":         "max_declarations",
		"source-root": "source_root",
		"docs-root":   "documentation_root",
	}
	for flag, key := range bindings {
		if fl := cmd.Flags().Lookup(flag); fl != nil && fl.Changed {
			if err := v.BindPFlag(key, fl); err != nil {
				return nil, err
			}
		}
	}
	if len(args) > 0 {
		v.Set("package", args[0])
	}
	if cmd.Flags().Changed("repository") {
		v.Set("repository.url", f.repository)
	}
	return v, nil
}

// loadCollection resolves the configured package and builds its collection
// through the handle carried by ctx.
func loadCollection(ctx context.Context, cfg *config.Config) (*collection.Collection, error) {
	logger := loggerFromContext(ctx)
	h, ok := collection.HandleFromContext(ctx)
	if !ok {
		return nil, derrors.NotInitialized
	}

	manifestPath, err := discover.Package(cfg.Package, ".")
	if err != nil {
		return nil, err
	}
	pkg, err := manifest.Load(manifestPath, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded package", "name", pkg.Name, "version", pkg.Version, "entries", len(pkg.EntryPoints))

	opts := collection.Options{
		Package:           pkg,
		SourceRoot:        cfg.SourceRoot,
		DocumentationRoot: cfg.DocumentationRoot,
		Logger:            logger,
	}
	if opts.SourceRoot == "" {
		opts.SourceRoot = discover.WorkspaceRoot(pkg.Dir)
	}
	if cfg.Repository.URL != "" {
		sha := cfg.Repository.SHA
		if sha == "" {
			if sha, err = discover.GitSHA(ctx, opts.SourceRoot); err != nil {
				logger.Warn("no commit for code links", "err", err)
			}
		}
		if sha != "" {
			opts.Repository = &collection.Repository{URL: cfg.Repository.URL, SHA: sha}
		}
	}

	if err := h.Init(opts); err != nil {
		return nil, err
	}
	p := newProgress(logger)
	c, err := h.Collection(ctx)
	if err != nil {
		return nil, err
	}
	p.done(fmt.Sprintf("Collected %d declarations", len(c.Declarations())))
	return c, nil
}

func writeDocMap(w io.Writer, dm *model.DocMap, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(dm, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		_, err := fmt.Fprintln(w, toon.Encode(dm))
		return err
	}
}
