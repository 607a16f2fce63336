// Package widget locates the shopping cart widget HTML built by the frontend
// toolchain and serves the asset directory over HTTP. A build may emit the
// widget as shopping-cart.html or as versioned copies such as
// shopping-cart-2025.html; the unversioned file wins, otherwise the
// lexicographically last versioned file is used.
package widget

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// PrimaryFile is the unversioned widget filename.
	PrimaryFile = "shopping-cart.html"

	versionedPrefix = "shopping-cart-"
	versionedSuffix = ".html"
)

// ErrNotFound is returned when no widget HTML exists in the asset directory.
var ErrNotFound = errors.New("widget HTML not found")

// Loader reads the widget HTML from a filesystem rooted at the asset directory.
type Loader struct {
	fsys fs.FS
	dir  string
}

// NewLoader returns a Loader backed by the given filesystem. dir is only used
// in error messages.
func NewLoader(fsys fs.FS, dir string) *Loader {
	return &Loader{fsys: fsys, dir: dir}
}

// NewDirLoader returns a Loader reading from a directory on disk.
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir), dir)
}

// Dir returns the asset directory this loader reads from.
func (l *Loader) Dir() string {
	return l.dir
}

// LoadHTML returns the widget markup. The file is read on every call so a
// rebuilt widget is picked up without a restart.
func (l *Loader) LoadHTML() (string, error) {
	data, err := fs.ReadFile(l.fsys, PrimaryFile)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", PrimaryFile, err)
	}

	name, err := l.latestVersioned()
	if err != nil {
		return "", err
	}
	data, err = fs.ReadFile(l.fsys, name)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

// latestVersioned returns the lexicographically last shopping-cart-*.html.
func (l *Loader) latestVersioned() (string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return "", fmt.Errorf("%w in %s: %v", ErrNotFound, l.dir, err)
	}

	var candidates []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(name, versionedPrefix) && strings.HasSuffix(name, versionedSuffix) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w in %s (build the widget assets first)", ErrNotFound, l.dir)
	}

	sort.Strings(candidates)
	return candidates[len(candidates)-1], nil
}

// ResolveDir picks the asset directory. A configured directory is used as-is;
// otherwise ./assets, then ../assets relative to workDir, then "assets".
func ResolveDir(configured, workDir string) string {
	if configured != "" {
		return configured
	}
	candidates := []string{
		filepath.Join(workDir, "assets"),
		filepath.Join(filepath.Dir(workDir), "assets"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "assets"
}
