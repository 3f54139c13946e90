// Package security validates the file paths handed to remapgen so that a run
// never clobbers its own input or writes somewhere unexpected.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// canonicalPath returns the absolute, symlink-resolved form of path. For a
// path that does not exist yet, the nearest existing parent is resolved and
// the remaining components are appended.
func canonicalPath(path string) (string, error) {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}
	checkPath := absPath
	for {
		parentDir := filepath.Dir(checkPath)
		if parentDir == checkPath {
			return absPath, nil
		}
		if resolved, err := filepath.EvalSymlinks(parentDir); err == nil {
			rel, _ := filepath.Rel(parentDir, absPath)
			return filepath.Join(resolved, rel), nil
		}
		checkPath = parentDir
	}
}

// ValidateInputPath checks that path names an existing regular file with one
// of the given extensions.
func ValidateInputPath(path string, exts ...string) error {
	if err := checkExt(path, exts); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input %s is not a regular file", path)
	}
	return nil
}

// ValidateOutputPath checks that path has one of the given extensions, that
// its directory exists and that it is not a directory itself.
func ValidateOutputPath(path string, exts ...string) error {
	if err := checkExt(path, exts); err != nil {
		return err
	}
	dir := filepath.Dir(filepath.Clean(path))
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output %s is a directory", path)
	}
	return nil
}

// CheckDistinct returns an error if out resolves to the same file as in.
func CheckDistinct(in, out string) error {
	a, err := canonicalPath(in)
	if err != nil {
		return err
	}
	b, err := canonicalPath(out)
	if err != nil {
		return err
	}
	if a == b {
		return fmt.Errorf("refusing to overwrite input %s", in)
	}
	return nil
}

func checkExt(path string, exts []string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if len(exts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("%s: extension %q not one of %v", path, ext, exts)
	}
	return nil
}
