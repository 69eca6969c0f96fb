package maturin

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chainner-org/devinstall/pkgs/buildsys"
	"golang.org/x/mod/semver"
)

// DefaultOutDir is where maturin puts wheels when no -o is given,
// relative to the cargo workspace root.
const DefaultOutDir = "target/wheels"

// ErrInvalidVersion is returned by Bootstrap for versions that are not semver.
var ErrInvalidVersion = errors.New("invalid maturin version")

// Maturin wraps `maturin build` with chainable configuration.
type Maturin struct {
	r           buildsys.Runner
	manifest    string
	outDir      string
	release     bool
	interpreter string
	features    []string
	installer   []string
	env         map[string]string
}

var _ buildsys.BuildSystem = (*Maturin)(nil)

// New creates a Maturin helper building in release mode.
func New(r buildsys.Runner) *Maturin {
	return &Maturin{
		r:         r,
		release:   true,
		installer: []string{"pip"},
		env:       map[string]string{},
	}
}

// Manifest sets the Cargo.toml passed with -m.
func (m *Maturin) Manifest(path string) *Maturin {
	m.manifest = path
	return m
}

// Out sets the wheel output directory.
func (m *Maturin) Out(dir string) *Maturin {
	m.outDir = dir
	return m
}

func (m *Maturin) Release(on bool) *Maturin {
	m.release = on
	return m
}

// Interpreter selects the python interpreter the wheel is built for.
func (m *Maturin) Interpreter(python string) *Maturin {
	m.interpreter = python
	return m
}

func (m *Maturin) Features(features ...string) *Maturin {
	m.features = append(m.features, features...)
	return m
}

// Installer sets the pip command line used by Bootstrap, e.g. "python", "-m", "pip".
func (m *Maturin) Installer(cmd ...string) *Maturin {
	if len(cmd) > 0 {
		m.installer = cmd
	}
	return m
}

func (m *Maturin) Env(key, val string) {
	if m.env == nil {
		m.env = map[string]string{}
	}
	m.env[key] = val
}

// Bootstrap installs maturin==version with the configured installer.
func (m *Maturin) Bootstrap(ctx context.Context, version string) error {
	if version == "" {
		return nil
	}
	req, err := Requirement(version)
	if err != nil {
		return err
	}
	args := append(m.installer[1:len(m.installer):len(m.installer)], "install", "--disable-pip-version-check", req)
	return m.r.RunEnv(ctx, m.env, m.installer[0], args...)
}

func (m *Maturin) Build(ctx context.Context, args ...string) error {
	return m.r.RunEnv(ctx, m.env, "maturin", m.buildArgs(args)...)
}

// OutputDir returns the configured output dir, or maturin's default.
func (m *Maturin) OutputDir() string {
	if m.outDir != "" {
		return m.outDir
	}
	return DefaultOutDir
}

func (m *Maturin) buildArgs(extra []string) []string {
	args := []string{"build"}
	if m.release {
		args = append(args, "--release")
	}
	if m.manifest != "" {
		args = append(args, "-m", m.manifest)
	}
	if m.outDir != "" && filepath.Clean(m.outDir) != filepath.Clean(DefaultOutDir) {
		args = append(args, "-o", m.outDir)
	}
	if m.interpreter != "" {
		args = append(args, "-i", m.interpreter)
	}
	if len(m.features) > 0 {
		args = append(args, "--features", strings.Join(m.features, ","))
	}
	return append(args, extra...)
}

// Requirement returns the pip requirement pinning maturin to version.
// A leading "v" is accepted and dropped.
func Requirement(version string) (string, error) {
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return "maturin==" + strings.TrimPrefix(v, "v"), nil
}
