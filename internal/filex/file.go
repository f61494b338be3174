// Package filex holds filesystem helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path, with perm for
// any directory it has to create, and returns it as an absolute path.
func EnsureParentDir(path string, perm os.FileMode) (string, error) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", path, err)
	}

	if err := os.MkdirAll(dir, perm); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	return dir, nil
}
