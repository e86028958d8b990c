// Package manifest resolves the entry points of a package from its
// package.json export map.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/docgraph/internal/derrors"
)

// Package describes a package and the declaration files its exports point to.
type Package struct {
	Name        string
	Version     string
	Dir         string // directory holding package.json
	EntryPoints []EntryPoint
}

// EntryPoint is one resolved export.
type EntryPoint struct {
	Key  string // export map key, e.g. "." or "./utils"
	Path string // absolute path of the declaration file
}

// Specifier returns the import specifier consumers use for e, e.g.
// "pkg/utils" for key "./utils" of package "pkg".
func (p *Package) Specifier(e EntryPoint) string {
	return path.Clean(path.Join(p.Name, e.Key))
}

// Paths returns the entry point file paths in key order.
func (p *Package) Paths() []string {
	out := make([]string, len(p.EntryPoints))
	for i, e := range p.EntryPoints {
		out[i] = e.Path
	}
	return out
}

type packageFile struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Exports json.RawMessage `json:"exports"`
	Types   string          `json:"types"`
	Typings string          `json:"typings"`
	Module  string          `json:"module"`
	Main    string          `json:"main"`
	Files   []string        `json:"files"`
}

// Load reads the package.json at path, or in the directory path, and
// resolves its entry points. Exports that resolve to no declaration file are
// logged and skipped; a package with no entry point at all is an error.
func Load(manifestPath string, logger *log.Logger) (_ *Package, err error) {
	defer derrors.Wrap(&err, "manifest.Load(%q)", manifestPath)

	if logger == nil {
		logger = log.New(io.Discard)
	}
	if filepath.Base(manifestPath) != "package.json" {
		manifestPath = filepath.Join(manifestPath, "package.json")
	}
	manifestPath, err = filepath.Abs(manifestPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, derrors.NotFound
		}
		return nil, err
	}
	var pf packageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: %v", derrors.InvalidArgument, err)
	}

	r := &resolver{dir: filepath.Dir(manifestPath), logger: logger}
	if len(pf.Files) > 0 {
		r.files = ignore.CompileIgnoreLines(pf.Files...)
	}

	entries, err := r.entryPoints(&pf)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no declaration entry points for %s", derrors.NotFound, pf.Name)
	}
	return &Package{
		Name:        pf.Name,
		Version:     pf.Version,
		Dir:         r.dir,
		EntryPoints: entries,
	}, nil
}

type resolver struct {
	dir    string
	files  *ignore.GitIgnore // nil when the package has no "files" list
	logger *log.Logger
}

// conditions is the normalized form of one export map value.
type conditions struct {
	types string
	js    string
}

func (r *resolver) entryPoints(pf *packageFile) ([]EntryPoint, error) {
	exports, err := normaliseExports(pf.Exports)
	if err != nil {
		return nil, err
	}

	if exports == nil {
		types := pf.Types
		if types == "" {
			types = pf.Typings
		}
		js := pf.Module
		if js == "" {
			js = pf.Main
		}
		if js == "" && types == "" {
			js = "index.js"
		}
		p := r.typesPath(types, js)
		if p == "" {
			return nil, nil
		}
		return []EntryPoint{{Key: ".", Path: p}}, nil
	}

	keys := make([]string, 0, len(exports))
	for k := range exports {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]bool)
	var out []EntryPoint
	add := func(key, p string) {
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, EntryPoint{Key: key, Path: p})
	}

	for _, key := range keys {
		c := exports[key]
		search := c.types
		if search == "" {
			search = c.js
		}
		if search == "" {
			continue
		}

		if !strings.Contains(search, "*") {
			if p := r.typesPath(c.types, c.js); p != "" {
				add(key, p)
			} else {
				r.logger.Warn("no declaration file for export", "key", key, "path", search)
			}
			continue
		}

		matches, err := wildcard(search, r.dir)
		if err != nil {
			r.logger.Warn("skipping export", "key", key, "err", err)
			continue
		}
		if len(matches) == 0 {
			r.logger.Warn("export pattern matched no files", "key", key, "pattern", search)
			continue
		}
		for _, m := range matches {
			var types string
			if c.types != "" {
				types = m.path
			}
			js := strings.Replace(c.js, "*", m.replacement, 1)
			if p := r.typesPath(types, js); p != "" {
				add(strings.Replace(key, "*", m.replacement, 1), p)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// normaliseExports converts the "exports" field into a key → conditions map.
// It returns nil when the field is absent.
func normaliseExports(raw json.RawMessage) (map[string]conditions, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return map[string]conditions{".": {js: s}}, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: exports: %v", derrors.InvalidArgument, err)
	}

	subpaths := false
	for k := range m {
		if strings.HasPrefix(k, ".") {
			subpaths = true
			break
		}
	}
	if !subpaths {
		// "exports": {"types": ..., "default": ...} is shorthand for ".".
		return map[string]conditions{".": conditionsOf(raw)}, nil
	}

	out := make(map[string]conditions, len(m))
	for k, v := range m {
		out[k] = conditionsOf(v)
	}
	return out, nil
}

func conditionsOf(raw json.RawMessage) conditions {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return conditions{js: s}
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return conditions{}
	}
	var c conditions
	if t, ok := m["types"]; ok {
		c.types = conditionsOf(t).pick()
	}
	for _, k := range []string{"import", "require", "default"} {
		if v, ok := m[k]; ok {
			nested := conditionsOf(v)
			if c.types == "" {
				c.types = nested.types
			}
			if c.js = nested.js; c.js != "" {
				break
			}
		}
	}
	return c
}

func (c conditions) pick() string {
	if c.types != "" {
		return c.types
	}
	return c.js
}

// typesPath returns the declaration file for an export: tsPath when given and
// present, otherwise the ".d.ts" sibling of jsPath. It returns "" when
// neither exists or the file is excluded by the package's "files" list.
func (r *resolver) typesPath(tsPath, jsPath string) string {
	var p string
	switch {
	case filepath.IsAbs(tsPath):
		p = tsPath
	case tsPath != "":
		p = filepath.Join(r.dir, filepath.FromSlash(tsPath))
	case jsPath != "":
		full := filepath.Join(r.dir, filepath.FromSlash(jsPath))
		base := strings.TrimSuffix(filepath.Base(full), filepath.Ext(full))
		p = filepath.Join(filepath.Dir(full), base+".d.ts")
	default:
		return ""
	}
	if info, err := os.Stat(p); err != nil || !info.Mode().IsRegular() {
		return ""
	}
	if r.files != nil {
		rel, err := filepath.Rel(r.dir, p)
		if err == nil && !r.files.MatchesPath(filepath.ToSlash(rel)) {
			r.logger.Warn("export excluded by files list", "path", filepath.ToSlash(rel))
			return ""
		}
	}
	return p
}

var validWildcard = regexp.MustCompile(`^([^*]*)\*([^*]*)$`)

type wildcardMatch struct {
	path        string
	replacement string
}

// wildcard expands a pattern with a single "*" in one path segment against
// the directory that segment lives in. Later segments are appended to each
// match unchanged.
func wildcard(pattern, dir string) ([]wildcardMatch, error) {
	root := filepath.Join(dir, filepath.FromSlash(pattern))
	var rest string
	for {
		parent, base := filepath.Dir(root), filepath.Base(root)
		if strings.Contains(base, "*") {
			m := validWildcard.FindStringSubmatch(base)
			if m == nil {
				return nil, fmt.Errorf("%w: invalid wildcard pattern %q", derrors.InvalidArgument, pattern)
			}
			re := regexp.MustCompile("^" + regexp.QuoteMeta(m[1]) + "(.+)" + regexp.QuoteMeta(m[2]) + "$")
			entries, err := os.ReadDir(parent)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil, nil
				}
				return nil, err
			}
			var out []wildcardMatch
			for _, e := range entries {
				if sm := re.FindStringSubmatch(e.Name()); sm != nil {
					out = append(out, wildcardMatch{
						path:        filepath.Join(parent, e.Name(), rest),
						replacement: sm[1],
					})
				}
			}
			return out, nil
		}
		if parent == root {
			return []wildcardMatch{{path: pattern}}, nil
		}
		root = parent
		rest = filepath.Join(base, rest)
	}
}
