package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/docgraph/internal/derrors"
	"github.com/phobologic/docgraph/internal/model"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func createSamplePackage(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "package.json", `{"name": "widgets", "version": "0.1.0", "types": "index.d.ts"}`)
	writeTestFile(t, dir, "size.d.ts", `/** Dimensions in pixels. */
export interface Size {
  width: number;
  height: number;
}
`)
	writeTestFile(t, dir, "index.d.ts", `import { Size } from "./size";
export * from "./size";

/**
 * A widget with a {@link Size | size}.
 * @see {@link layout}
 */
export declare class Widget {
  /** The current {@link Size}. */
  size: Size;
  resize(next: Size): void;
}

/** Places a widget. Unlike {@link Missing}, it never fails. */
export declare function layout(w: Widget): Size;
`)
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, stderr, err := runCLI(t, "--config", dir, dir)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{
		"package: widgets",
		"version: 0.1.0",
		"declarations[3]{slug,name,kind,module,path,line,rank,signature}:",
		"InterfaceDeclaration-size",
		"ClassDeclaration-widget",
		"FunctionDeclaration-layout",
		"ClassDeclaration-widget-MethodDeclaration-resize",
		"groups[1]{name,slug,declarations}:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "package: widgets") {
		t.Errorf("output should start with the package:\n%s", out)
	}
}

func TestRunJSON(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "--config", dir, "--format", "json", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var dm model.DocMap
	if err := json.Unmarshal([]byte(out), &dm); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}

	var top []string
	for _, e := range dm.Entries {
		if e.Parent == "" {
			top = append(top, e.Name)
		}
	}
	// Size is referenced by both other declarations, so it ranks first.
	if len(top) != 3 || top[0] != "Size" {
		t.Errorf("top-level order = %v, want Size first", top)
	}
	wantDeps := []model.Dependency{
		{Source: "ClassDeclaration-widget", Target: "InterfaceDeclaration-size", Symbols: []string{"Size"}},
		{Source: "FunctionDeclaration-layout", Target: "ClassDeclaration-widget", Symbols: []string{"Widget"}},
		{Source: "FunctionDeclaration-layout", Target: "InterfaceDeclaration-size", Symbols: []string{"Size"}},
	}
	if diff := cmp.Diff(wantDeps, dm.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestRunMax(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "--config", dir, "-n", "1", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "declarations[1]") || !strings.Contains(out, "InterfaceDeclaration-size") {
		t.Errorf("expected only Size, got:\n%s", out)
	}
	if strings.Contains(out, "ClassDeclaration-widget") {
		t.Errorf("unselected declaration in output:\n%s", out)
	}
}

func TestRunFilters(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "--config", dir, "--name", "layout", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// layout plus the declarations it references.
	if !strings.Contains(out, "declarations[3]") {
		t.Errorf("--name layout should keep its neighbours:\n%s", out)
	}

	out, _, err = runCLI(t, "--config", dir, "--module", "nomatch", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "declarations[0]") {
		t.Errorf("--module nomatch should match nothing:\n%s", out)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	out, _, err := runCLI(t, "--version")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "docgraph dev\n" {
		t.Errorf("version output: %q", out)
	}
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	empty := t.TempDir()
	if _, _, err := runCLI(t, "--config", empty, empty); !errors.Is(err, derrors.NotFound) {
		t.Errorf("run without package.json: err = %v, want NotFound", err)
	}

	broken := t.TempDir()
	writeTestFile(t, broken, "package.json", `{"name": "broken", "types": "index.d.ts"}`)
	writeTestFile(t, broken, "index.d.ts", "export declare class {\n")
	if _, _, err := runCLI(t, "--config", broken, broken); !errors.Is(err, derrors.Compile) {
		t.Errorf("run with syntax error: err = %v, want Compile", err)
	}

	if _, _, err := runCLI(t, "--config", empty, "--format", "yaml", createSamplePackage(t)); !errors.Is(err, derrors.InvalidArgument) {
		t.Errorf("run with bad format: err = %v, want InvalidArgument", err)
	}
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)
	writeTestFile(t, dir, "docgraph.toml", `package = "`+filepath.ToSlash(dir)+`"
format = "json"
documentation_root = "/api"
`)

	out, _, err := runCLI(t, "--config", dir)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "{") {
		t.Errorf("config format ignored:\n%s", out)
	}

	// Flags win over the file.
	out, _, err = runCLI(t, "--config", dir, "--format", "toon")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "package: widgets") {
		t.Errorf("--format flag ignored:\n%s", out)
	}
}

func TestShow(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, stderr, err := runCLI(t, "show", "--config", dir, "-p", dir, "ClassDeclaration-widget")
	if err != nil {
		t.Fatalf("show: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{
		"# Widget\n",
		"- kind: class\n",
		"- package: widgets@0.1.0\n",
		"- module: `widgets`\n",
		"A widget with a [size](/code/InterfaceDeclaration-size).",
		"- [size](/code/ClassDeclaration-widget-PropertyDeclaration-size): The current [Size](/code/InterfaceDeclaration-size).",
		"- [resize](/code/ClassDeclaration-widget-MethodDeclaration-resize)",
		"## Referenced by\n\n- [layout](/code/FunctionDeclaration-layout)",
		"- [layout](/code/FunctionDeclaration-layout)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestShowUnresolvedLink(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "show", "--config", dir, "-p", dir, "FunctionDeclaration-layout")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Places a widget. Unlike Missing, it never fails.") {
		t.Errorf("unresolved link should become plain text:\n%s", out)
	}
	if !strings.Contains(out, "## Parameters\n\n- [w](/code/FunctionDeclaration-layout-Parameter-w)") {
		t.Errorf("parameters missing:\n%s", out)
	}
}

func TestShowFormats(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	out, _, err := runCLI(t, "show", "--config", dir, "-p", dir, "--html", "ClassDeclaration-widget")
	if err != nil {
		t.Fatalf("show --html: %v", err)
	}
	if !strings.Contains(out, `<a href="/code/InterfaceDeclaration-size">size</a>`) {
		t.Errorf("HTML output missing link:\n%s", out)
	}

	out, _, err = runCLI(t, "show", "--config", dir, "-p", dir, "--links", "FunctionDeclaration-layout")
	if err != nil {
		t.Fatalf("show --links: %v", err)
	}
	want := "/code/FunctionDeclaration-layout-Parameter-w\n/code/ClassDeclaration-widget\n/code/InterfaceDeclaration-size\n"
	if out != want {
		t.Errorf("links = %q, want %q", out, want)
	}
}

func TestShowUnknownSlug(t *testing.T) {
	t.Parallel()
	dir := createSamplePackage(t)

	_, _, err := runCLI(t, "show", "--config", dir, "-p", dir, "ClassDeclaration-nope")
	if !errors.Is(err, derrors.NotFound) {
		t.Errorf("show unknown slug: err = %v, want NotFound", err)
	}
}
