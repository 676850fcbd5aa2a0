// Package testutil has helpers shared by tests across the module.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

// Setup writes files into a fresh temporary directory and returns its path.
// Keys are slash separated paths relative to that directory.
func Setup(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()

	for relPath, content := range files {
		fullPath := filepath.Join(root, filepath.FromSlash(relPath))

		dir := filepath.Dir(fullPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			tb.Fatalf("creating directory %s: %v", dir, err)
		}

		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			tb.Fatalf("writing file %s: %v", fullPath, err)
		}
	}

	return root
}

// MemFS returns an in-memory filesystem holding files.
func MemFS(tb testing.TB, files map[string]string) billy.Filesystem {
	tb.Helper()

	fsys := memfs.New()
	for name, content := range files {
		if err := util.WriteFile(fsys, name, []byte(content), 0o644); err != nil {
			tb.Fatalf("writing %s: %v", name, err)
		}
	}
	return fsys
}

// RequireBinary skips the test when name is not on PATH.
func RequireBinary(tb testing.TB, name string) {
	tb.Helper()

	if _, err := exec.LookPath(name); err != nil {
		tb.Skipf("skipping: %s not in PATH", name)
	}
}
