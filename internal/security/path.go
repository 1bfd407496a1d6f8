// Package security keeps file access requested over MCP inside the corpus root.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath   = errors.New("path cannot be empty")
	ErrOutsideRoot = errors.New("path is outside the corpus root")
)

// PathValidator resolves caller supplied paths against a fixed root.
type PathValidator struct {
	root     string
	realRoot string
}

// NewPathValidator creates a validator for root. The root does not have to
// exist yet; symlinks in it are resolved when it does.
func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	resolved := abs
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		resolved = r
	}
	return &PathValidator{root: abs, realRoot: resolved}, nil
}

// Root returns the absolute root directory.
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the absolute form of path, which may be relative to the
// root. Null bytes are stripped. The path, and its symlink target when it
// exists, must lie within the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	clean := filepath.Clean(path)

	if !v.within(clean) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	if _, err := os.Lstat(clean); err == nil {
		target, err := filepath.EvalSymlinks(clean)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		if !v.within(target) {
			return "", fmt.Errorf("%w: %s resolves to %s", ErrOutsideRoot, path, target)
		}
	}
	return clean, nil
}

// within reports whether p is the root or below it, comparing against both
// the configured and the symlink-resolved root.
func (v *PathValidator) within(p string) bool {
	for _, dir := range []string{v.root, v.realRoot} {
		if p == dir || strings.HasPrefix(p, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
