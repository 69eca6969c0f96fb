// Package cargo reads the parts of a Cargo.toml that name the built
// Python extension module.
package cargo

import (
	"os"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

type Package struct {
	Name string `toml:"name"`
}

type Lib struct {
	Name      string   `toml:"name"`
	CrateType []string `toml:"crate-type"`
}

// Manifest is a parsed Cargo.toml.
type Manifest struct {
	Package Package `toml:"package"`
	Lib     Lib     `toml:"lib"`
}

// Load parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ModuleName returns the name of the compiled module: [lib].name when set,
// otherwise the package name with dashes turned into underscores, as cargo
// does for library targets.
func (m *Manifest) ModuleName() string {
	if m.Lib.Name != "" {
		return m.Lib.Name
	}
	return strings.ReplaceAll(m.Package.Name, "-", "_")
}

// IsExtension reports whether the library builds as a cdylib, the crate
// type a Python extension module needs.
func (m *Manifest) IsExtension() bool {
	return slices.Contains(m.Lib.CrateType, "cdylib")
}
