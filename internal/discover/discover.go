// Package discover locates packages and workspace metadata on disk.
package discover

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/phobologic/docgraph/internal/derrors"
)

// lockFiles mark the root of a JavaScript workspace.
var lockFiles = []string{
	"package-lock.json",
	"pnpm-lock.yaml",
	"yarn.lock",
}

const gitTimeout = 10 * time.Second

// Package returns the path of the package.json for id. An id that looks like
// a path ("./pkg", "/abs/pkg", ".../package.json") names the package
// directory or manifest directly; anything else is a package name looked up
// in node_modules directories from dir upward.
func Package(id, dir string) (_ string, err error) {
	defer derrors.Wrap(&err, "discover.Package(%q)", id)

	if isPath(id) {
		p, err := filepath.Abs(id)
		if err != nil {
			return "", err
		}
		if filepath.Base(p) != "package.json" {
			p = filepath.Join(p, "package.json")
		}
		if !isFile(p) {
			return "", derrors.NotFound
		}
		return p, nil
	}

	dir, err = filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, "node_modules", filepath.FromSlash(id), "package.json")
		if isFile(p) {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: no node_modules entry for %s", derrors.NotFound, id)
		}
		dir = parent
	}
}

func isPath(id string) bool {
	return id == "." || id == ".." ||
		filepath.IsAbs(id) ||
		strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") ||
		filepath.Base(id) == "package.json"
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// WorkspaceRoot returns the nearest ancestor of dir (dir included) holding a
// package-manager lock file. Without one it returns dir itself.
func WorkspaceRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		for _, name := range lockFiles {
			if isFile(filepath.Join(cur, name)) {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}

// GitSHA returns the commit checked out in the git repository containing dir.
func GitSHA(ctx context.Context, dir string) (_ string, err error) {
	defer derrors.Wrap(&err, "discover.GitSHA(%q)", dir)

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	sha := strings.TrimSpace(string(out))
	if sha == "" {
		return "", derrors.NotFound
	}
	return sha, nil
}
