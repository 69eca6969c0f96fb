//go:build unix || windows

package lock

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target", "wheels", FileName)

	unlock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire error = %v, want ErrLocked", err)
	}

	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}

	unlock, err = Acquire(path)
	if err != nil {
		t.Fatalf("Acquire after unlock: %v", err)
	}
	if err := unlock(); err != nil {
		t.Fatalf("unlock: %v", err)
	}
}
