package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/docgraph/internal/derrors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName+".toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(New(t.TempDir()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		Package:           ".",
		DocumentationRoot: "/code",
		Format:            "toon",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `
package = "widgets"
source_root = "/src"
documentation_root = "/docs/api"
format = "json"
max_declarations = 25

[repository]
url = "https://github.com/acme/widgets"
sha = "abc123"
`)
	cfg, err := Load(New(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		Package:           "widgets",
		SourceRoot:        "/src",
		DocumentationRoot: "/docs/api",
		Repository:        Repository{URL: "https://github.com/acme/widgets", SHA: "abc123"},
		Format:            "json",
		MaxDeclarations:   25,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRepositoryShorthand(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, `repository = "https://github.com/acme/widgets"`)
	cfg, err := Load(New(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Repository{URL: "https://github.com/acme/widgets"}
	if diff := cmp.Diff(want, cfg.Repository); diff != "" {
		t.Errorf("repository mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("DOCGRAPH_FORMAT", "json")
	t.Setenv("DOCGRAPH_REPOSITORY_SHA", "fromenv")

	dir := writeConfig(t, "[repository]\nurl = \"https://example.com/r\"\n")
	cfg, err := Load(New(dir))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want json", cfg.Format)
	}
	if cfg.Repository.SHA != "fromenv" || cfg.Repository.URL != "https://example.com/r" {
		t.Errorf("Repository = %+v", cfg.Repository)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"format", `format = "yaml"`},
		{"negative max", `max_declarations = -1`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(New(writeConfig(t, tt.content)))
			if !errors.Is(err, derrors.InvalidArgument) {
				t.Errorf("Load: err = %v, want InvalidArgument", err)
			}
		})
	}

	if _, err := Load(New(writeConfig(t, "package = "))); err == nil {
		t.Error("Load of malformed toml succeeded")
	}
}
