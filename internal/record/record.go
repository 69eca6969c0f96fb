package record

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chainner-org/devinstall/pkgs/wheel"
)

// Output directory layout:
//
//	target/wheels/
//	  .devinstall.json      # install record: normalized package name → Entry
//	  .devinstall.lock      # run lock
//	  <dist>-<version>-...whl
const File = ".devinstall.json"

// Entry describes the last successful install of a package.
type Entry struct {
	Wheel       string    `json:"wheel"`
	Fingerprint string    `json:"fingerprint"`
	InstallTime time.Time `json:"install_time"`
}

// Record maps normalized package names to their last install.
type Record struct {
	Packages map[string]*Entry `json:"packages"`
}

// Get returns the entry for pkg; names are compared after normalization.
func (r *Record) Get(pkg string) (*Entry, bool) {
	e, ok := r.Packages[wheel.NormalizeName(pkg)]
	return e, ok
}

func (r *Record) Set(pkg string, e *Entry) {
	if r.Packages == nil {
		r.Packages = make(map[string]*Entry)
	}
	r.Packages[wheel.NormalizeName(pkg)] = e
}

// Unchanged reports whether pkg was last installed from a wheel with the
// same name and fingerprint.
func (r *Record) Unchanged(pkg, wheelName, fingerprint string) bool {
	e, ok := r.Get(pkg)
	return ok && e.Wheel == wheelName && e.Fingerprint == fingerprint
}

// Load reads the record in dir. A missing file yields an empty record.
func Load(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, File))
	if errors.Is(err, fs.ErrNotExist) {
		return &Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save writes the record to dir, replacing the previous file atomically.
func (r *Record) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, File+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, File))
}
