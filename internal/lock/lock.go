// Package lock serializes devinstall runs that share an output directory.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the lock file created inside the output directory.
const FileName = ".devinstall.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("locked by another devinstall run")

// Acquire takes an exclusive lock on path without blocking and returns the
// function that releases it.
func Acquire(path string) (unlock func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := tryLock(f); err != nil {
		f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}
	return func() error {
		uerr := unlockFile(f)
		if cerr := f.Close(); uerr == nil {
			uerr = cerr
		}
		return uerr
	}, nil
}
