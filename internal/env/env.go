package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoProject is returned when no directory up the tree has a marker file.
var ErrNoProject = errors.New("project directory not found")

// ProjectDir walks up from start and returns the first directory that
// contains any of the marker paths.
func ProjectDir(start string, markers ...string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: none of %v above %s", ErrNoProject, markers, start)
		}
		dir = parent
	}
}

// PythonEnv returns the prefix of the active virtualenv or conda
// environment, or "" when pip would target the base interpreter.
func PythonEnv() string {
	if p := os.Getenv("VIRTUAL_ENV"); p != "" {
		return p
	}
	return os.Getenv("CONDA_PREFIX")
}
