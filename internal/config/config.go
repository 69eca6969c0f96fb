package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainner-org/devinstall/internal/artifact"
	"github.com/chainner-org/devinstall/pkgs/buildsys/maturin"
	"github.com/chainner-org/devinstall/pkgs/cargo"
	"github.com/pelletier/go-toml/v2"
)

// PyProject is the file whose [tool.devinstall] table configures a project.
const PyProject = "pyproject.toml"

// DefaultManifest is the Cargo manifest of the extension bindings crate.
const DefaultManifest = "crates/bindings/Cargo.toml"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every knob of an install run. Relative paths are resolved
// against Dir.
type Config struct {
	Dir string `toml:"-"`

	Manifest  string   `toml:"manifest"`
	OutDir    string   `toml:"out-dir"`
	Release   bool     `toml:"release"`
	Features  []string `toml:"features"`
	Toolchain string   `toml:"toolchain"`

	Package        string `toml:"package"`
	Python         string `toml:"python"`
	ForceReinstall bool   `toml:"force-reinstall"`
	NoDeps         bool   `toml:"no-deps"`

	Policy  string `toml:"policy"`
	Pattern string `toml:"pattern"`

	KeepGoing     bool `toml:"keep-going"`
	SkipUnchanged bool `toml:"skip-unchanged"`

	// Env is set for every command, BuildEnv for maturin only.
	Env      map[string]string `toml:"env"`
	BuildEnv map[string]string `toml:"build-env"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Dir:      ".",
		Manifest: DefaultManifest,
		OutDir:   maturin.DefaultOutDir,
		Release:  true,
		Policy:   string(artifact.PolicyNewest),
		Pattern:  artifact.DefaultPattern,
	}
}

type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Maturin struct {
			ModuleName string `toml:"module-name"`
		} `toml:"maturin"`
		Devinstall Config `toml:"devinstall"`
	} `toml:"tool"`
}

// packageName is the distribution name pip knows the project by.
func (p *pyproject) packageName() string {
	if p.Project.Name != "" {
		return p.Project.Name
	}
	if mod := p.Tool.Maturin.ModuleName; mod != "" {
		top, _, _ := strings.Cut(mod, ".")
		return top
	}
	return ""
}

// Load returns the defaults overlaid with the [tool.devinstall] table of
// dir/pyproject.toml. A missing pyproject.toml is not an error.
func Load(dir string) (Config, error) {
	cfg := Default()
	cfg.Dir = dir

	data, err := os.ReadFile(filepath.Join(dir, PyProject))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}

	var pp pyproject
	pp.Tool.Devinstall = cfg
	if err := toml.Unmarshal(data, &pp); err != nil {
		return Config{}, fmt.Errorf("%s: %w", PyProject, err)
	}
	cfg = pp.Tool.Devinstall
	cfg.Dir = dir
	if cfg.Package == "" {
		cfg.Package = pp.packageName()
	}
	return cfg, nil
}

// ResolvePackage fills in Package from the Cargo manifest when neither
// flags nor pyproject.toml named it.
func (c *Config) ResolvePackage() error {
	if c.Package != "" {
		return nil
	}
	m, err := cargo.Load(c.ManifestPath())
	if err != nil {
		return fmt.Errorf("%w: no package name configured and manifest unreadable: %w", ErrInvalid, err)
	}
	if c.Package = m.ModuleName(); c.Package == "" {
		return fmt.Errorf("%w: no package name configured and %s names none", ErrInvalid, c.Manifest)
	}
	return nil
}

// Validate checks the configuration before anything runs.
func (c *Config) Validate() error {
	if c.Manifest == "" {
		return fmt.Errorf("%w: manifest cannot be empty", ErrInvalid)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%w: out-dir cannot be empty", ErrInvalid)
	}
	if _, err := artifact.ParsePolicy(c.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("%w: pattern %q: %w", ErrInvalid, c.Pattern, err)
	}
	if c.Toolchain != "" {
		if _, err := maturin.Requirement(c.Toolchain); err != nil {
			return fmt.Errorf("%w: toolchain: %w", ErrInvalid, err)
		}
	}
	for _, env := range []map[string]string{c.Env, c.BuildEnv} {
		for k := range env {
			if k == "" || strings.Contains(k, "=") {
				return fmt.Errorf("%w: bad environment variable name %q", ErrInvalid, k)
			}
		}
	}
	return nil
}

// ParseEnv parses KEY=VALUE assignments, later ones winning.
func ParseEnv(assigns []string) (map[string]string, error) {
	env := make(map[string]string, len(assigns))
	for _, a := range assigns {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q is not KEY=VALUE", ErrInvalid, a)
		}
		env[k] = v
	}
	return env, nil
}

// SetEnv merges env over dst, allocating dst if needed.
func SetEnv(dst *map[string]string, env map[string]string) {
	if len(env) == 0 {
		return
	}
	if *dst == nil {
		*dst = make(map[string]string, len(env))
	}
	for k, v := range env {
		(*dst)[k] = v
	}
}

// SelectOptions returns the artifact selection settings. Call after Validate.
func (c *Config) SelectOptions() artifact.Options {
	p, _ := artifact.ParsePolicy(c.Policy)
	return artifact.Options{Policy: p, Pattern: c.Pattern}
}

func (c *Config) ManifestPath() string {
	return c.resolve(c.Manifest)
}

func (c *Config) OutPath() string {
	return c.resolve(c.OutDir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, filepath.FromSlash(p))
}
