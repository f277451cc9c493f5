// Package workers locates worker definition files. Resolution is per-worker:
// a project may override a single worker while all others fall back to the
// shared install, so nobody has to mirror the full set to customize one.
package workers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	loomDirName = ".loom"

	// SharedRootEnv overrides shared-install discovery entirely.
	SharedRootEnv = "LOOM_HOME"

	workersSubdir = "workers"
)

// standardRoots are the fixed fallback locations for a shared install.
var standardRoots = []string{
	"/usr/local/share/loom",
	"/usr/share/loom",
}

// Resolve finds the definition file for a worker, trying in order:
//
//  1. {projectRoot}/.loom/workers/{name}.md (project-local override)
//  2. {sharedInstallRoot}/workers/{name}.md (shared install)
//  3. {projectRoot}/workers/{name}.md, only when projectRoot is loom's own
//     source checkout (development fallback)
//
// Returns ok=false if the worker is not found anywhere.
func Resolve(workerName, projectRoot string) (string, bool) {
	for _, path := range candidates(workerName, projectRoot) {
		if isFile(path) {
			return path, true
		}
	}
	return "", false
}

// candidates returns every path Resolve would check, in resolution order.
func candidates(workerName, projectRoot string) []string {
	name := workerName + ".md"
	paths := []string{
		filepath.Join(projectRoot, loomDirName, workersSubdir, name),
	}
	if shared := SharedInstallRoot(); shared != "" {
		paths = append(paths, filepath.Join(shared, workersSubdir, name))
	}
	if isDevCheckout(projectRoot) {
		paths = append(paths, filepath.Join(projectRoot, workersSubdir, name))
	}
	return paths
}

// SharedInstallRoot discovers the globally-installed worker set: environment
// override first, then a path relative to the running binary, then the fixed
// standard locations. Returns "" when no shared install exists.
func SharedInstallRoot() string {
	if root := os.Getenv(SharedRootEnv); root != "" {
		return root
	}

	if exe, err := os.Executable(); err == nil {
		rel := filepath.Join(filepath.Dir(exe), "..", "share", "loom")
		if isDir(rel) {
			return rel
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		local := filepath.Join(home, loomDirName)
		if isDir(filepath.Join(local, workersSubdir)) {
			return local
		}
	}

	for _, root := range standardRoots {
		if isDir(root) {
			return root
		}
	}
	return ""
}

// isDevCheckout reports whether projectRoot looks like loom's own source
// tree: its go.mod names this module and a worker-definition directory sits
// next to it.
func isDevCheckout(projectRoot string) bool {
	data, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return false
	}
	if !strings.Contains(string(data), "module github.com/imkarma/loom") {
		return false
	}
	return isDir(filepath.Join(projectRoot, workersSubdir))
}

// MissingWorkersError reports every worker that failed preflight resolution
// and every path that was searched.
type MissingWorkersError struct {
	Missing  []string
	Searched []string
}

func (e *MissingWorkersError) Error() string {
	return fmt.Sprintf("missing worker definitions: %s (searched: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Searched, ", "))
}

// VerifyRequired resolves every named worker up front so a missing one is
// reported before any dispatch happens, not discovered mid-sequence.
func VerifyRequired(workerNames []string, projectRoot string) error {
	var missing, searched []string
	for _, name := range workerNames {
		if _, ok := Resolve(name, projectRoot); ok {
			continue
		}
		missing = append(missing, name)
		searched = append(searched, candidates(name, projectRoot)...)
	}
	if len(missing) > 0 {
		return &MissingWorkersError{Missing: missing, Searched: searched}
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
