package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// MarkerFile is written at the root of every initialized store.
const MarkerFile = "quill.yaml"

// ErrRootNotFound is returned by FindRoot when no store encloses the start directory.
var ErrRootNotFound = errors.New("root not found")

// FindRoot looks upwards from startDir for a store root, which is a directory
// holding a quill.yaml marker or a .quill system directory.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, MarkerFile) || hasFile(dir, DefaultSystemDir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
