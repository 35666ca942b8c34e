// Package security confines file access by the MCP tools to the report
// directory.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyPath      = errors.New("path cannot be empty")
	ErrOutsideRoot    = errors.New("path is outside the report directory")
	ErrFileNotFound   = errors.New("file not found")
	ErrNotRegularFile = errors.New("path is not a regular file")
)

// PathValidator resolves user supplied paths against a root directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory must exist.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("report directory cannot be empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report directory: %w", err)
	}

	// compare against the real location so symlinked roots work
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("report directory is not accessible: %w", err)
	}

	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("report directory is not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("report directory is not a directory: %s", dir)
	}

	return &PathValidator{root: filepath.Clean(real)}, nil
}

// Root returns the resolved report directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve returns the real path of an existing regular file inside the root.
// Relative paths are taken relative to the root. Symlinks are followed before
// the containment check, so a link cannot escape the directory.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	path = filepath.Clean(path)

	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if !v.Contains(real) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("cannot access file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	return real, nil
}

// Contains reports whether an absolute, cleaned path lies within the root
func (v *PathValidator) Contains(path string) bool {
	if path == v.root {
		return true
	}
	prefix := v.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
