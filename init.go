package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/docgraph/internal/config"
)

const (
	sentinelStart = "# docgraph:start"
	sentinelEnd   = "# docgraph:end"
)

// newInitCmd implements `docgraph init`, which writes (or updates) a
// docgraph settings block in docgraph.toml.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dryRun     bool
		pkg        string
		repository string
	)
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter docgraph.toml",
		Long: `Write a docgraph settings block to docgraph.toml in dir. The block is
wrapped in sentinel comments so it can be updated in place on subsequent runs
without touching surrounding settings. Creates the file if it does not exist.

dir defaults to the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			section := generateSection(pkg, repository)

			// --dry-run with no dir: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(stdout, section)
				return nil
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName+".toml")

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}
			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote docgraph settings to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().StringVar(&pkg, "package", ".", "package name or path to document")
	cmd.Flags().StringVar(&repository, "repository", "", "repository URL for code links")
	return cmd
}

// generateSection returns the sentinel-wrapped settings block.
func generateSection(pkg, repository string) string {
	var b strings.Builder
	b.WriteString(sentinelStart + "\n")
	b.WriteString(`# Settings for docgraph. Command-line flags and DOCGRAPH_* environment
# variables take precedence over this file.
`)
	fmt.Fprintf(&b, "package = %s\n", strconv.Quote(pkg))
	fmt.Fprintf(&b, "documentation_root = %s\n", strconv.Quote(config.DefaultDocumentationRoot))
	b.WriteString("format = \"toon\"     # toon or json\n")
	b.WriteString("max_declarations = 0 # 0 lists every declaration\n")
	b.WriteString("# source_root = \".\" # defaults to the workspace root\n")
	if repository != "" {
		fmt.Fprintf(&b, "repository = %s # commit defaults to git HEAD\n", strconv.Quote(repository))
	} else {
		b.WriteString("# repository = \"https://github.com/owner/repo\"\n")
	}
	b.WriteString(sentinelEnd)
	return b.String()
}

// applySection inserts section into content, replacing an existing sentinel
// block if present. Otherwise the section goes first, since top-level TOML
// keys must precede any table.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}
	if content == "" {
		return section + "\n"
	}
	return section + "\n\n" + content
}
