package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/docgraph/internal/config"
)

func runInit(args []string, stdout, stderr *bytes.Buffer) error {
	return run(context.Background(), append([]string{"init"}, args...), stdout, stderr)
}

// TestApplySectionCreate verifies that applySection on empty content yields
// just the section with a trailing newline.
func TestApplySectionCreate(t *testing.T) {
	t.Parallel()
	section := sentinelStart + "\nbody\n" + sentinelEnd
	got := applySection("", section)
	if got != section+"\n" {
		t.Errorf("applySection = %q", got)
	}
}

// TestApplySectionPrepend verifies that existing settings without a sentinel
// block are preserved after the new section.
func TestApplySectionPrepend(t *testing.T) {
	t.Parallel()
	existing := "[repository]\nurl = \"https://example.com/r\"\n"
	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(existing, section)

	if !strings.HasSuffix(got, existing) {
		t.Errorf("existing content should be preserved at end:\n%s", got)
	}
	if !strings.HasPrefix(got, section) {
		t.Errorf("section should come first:\n%s", got)
	}
}

// TestApplySectionUpdate verifies that an existing sentinel block is replaced
// precisely, leaving surrounding content intact.
func TestApplySectionUpdate(t *testing.T) {
	t.Parallel()
	before := "# project settings\n\n"
	after := "\n\n[repository]\nsha = \"abc\"\n"
	old := before + sentinelStart + "\nold content\n" + sentinelEnd + after

	section := sentinelStart + "\nnew content\n" + sentinelEnd
	got := applySection(old, section)

	if !strings.HasPrefix(got, before) {
		t.Errorf("content before sentinel should be preserved:\n%s", got)
	}
	if !strings.HasSuffix(got, after) {
		t.Errorf("content after sentinel should be preserved:\n%s", got)
	}
	if strings.Contains(got, "old content") {
		t.Error("old content should be replaced")
	}
	if !strings.Contains(got, "new content") {
		t.Error("new content missing")
	}
}

// TestInitCreatesFile verifies that init creates docgraph.toml when it does
// not exist, and that the result loads as config.
func TestInitCreatesFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	args := []string{"--package", "widgets", "--repository", "https://github.com/acme/widgets", dir}
	if err := runInit(args, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "docgraph.toml"))
	if err != nil {
		t.Fatalf("file not created: %v", err)
	}
	if !strings.Contains(string(data), sentinelStart) || !strings.Contains(string(data), sentinelEnd) {
		t.Errorf("sentinels missing from created file:\n%s", data)
	}

	cfg, err := config.Load(config.New(dir))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Package != "widgets" || cfg.Repository.URL != "https://github.com/acme/widgets" || cfg.Format != "toon" {
		t.Errorf("config = %+v", cfg)
	}
}

// TestInitDryRun verifies that --dry-run prints the would-be file content and
// does not create the file.
func TestInitDryRun(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{"--dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "docgraph.toml")); err == nil {
		t.Error("--dry-run should not create the file")
	}
	out := stdout.String()
	if !strings.Contains(out, sentinelStart) || !strings.Contains(out, sentinelEnd) {
		t.Errorf("dry-run output missing sentinels:\n%s", out)
	}
}

// TestInitDryRunNoPath verifies that --dry-run without a dir prints just the
// generated section.
func TestInitDryRunNoPath(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{"--dry-run"}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, sentinelStart) {
		t.Errorf("output should start with the section:\n%s", out)
	}
	if !strings.Contains(out, `package = "."`) {
		t.Errorf("output missing default package:\n%s", out)
	}
}

// TestInitDryRunShowsFullFile verifies that --dry-run on an existing file
// shows the complete would-be content and leaves the file alone.
func TestInitDryRunShowsFullFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "docgraph.toml")

	existing := "[repository]\nsha = \"abc123\"\n"
	if err := os.WriteFile(path, []byte(existing), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if err := runInit([]string{"--dry-run", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("init: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "sha = \"abc123\"") || !strings.Contains(out, sentinelStart) {
		t.Errorf("dry-run output incomplete:\n%s", out)
	}
	data, _ := os.ReadFile(path)
	if string(data) != existing {
		t.Error("--dry-run must not modify the file")
	}
}

// TestInitIdempotent verifies that running init twice produces identical
// output.
func TestInitIdempotent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "docgraph.toml")

	var buf bytes.Buffer
	if err := runInit([]string{dir}, &buf, &buf); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := runInit([]string{dir}, &buf, &buf); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := os.ReadFile(path)

	if string(first) != string(second) {
		t.Errorf("init is not idempotent:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestGenerateSection(t *testing.T) {
	t.Parallel()

	without := generateSection(".", "")
	if !strings.Contains(without, `# repository = "https://github.com/owner/repo"`) {
		t.Errorf("section should show a commented repository example:\n%s", without)
	}
	with := generateSection("@acme/widgets", "https://github.com/acme/widgets")
	for _, want := range []string{
		`package = "@acme/widgets"`,
		`repository = "https://github.com/acme/widgets"`,
		`documentation_root = "/code"`,
	} {
		if !strings.Contains(with, want) {
			t.Errorf("section missing %q:\n%s", want, with)
		}
	}
}
