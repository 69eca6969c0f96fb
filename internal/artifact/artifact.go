package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chainner-org/devinstall/pkgs/gnu"
	"github.com/chainner-org/devinstall/pkgs/wheel"
)

// Policy decides which of the built artifacts gets installed.
type Policy string

const (
	// PolicyFirst takes the first entry of the output directory listing.
	// The listing is sorted by name, so with several wheels present the
	// pick follows naming rather than age.
	PolicyFirst Policy = "first"
	// PolicyNewest takes the most recently modified entry matching the pattern.
	PolicyNewest Policy = "newest"
)

// DefaultPattern matches wheel files.
const DefaultPattern = "*" + wheel.Ext

// ErrNoArtifact is returned when there is nothing to select.
var ErrNoArtifact = errors.New("no build artifact found")

// ErrUnknownPolicy is returned for policies other than first and newest.
var ErrUnknownPolicy = errors.New("unknown selection policy")

// Artifact is a file produced by the build.
type Artifact struct {
	Path    string
	Name    string
	ModTime time.Time
}

type Options struct {
	Policy Policy
	// Pattern filters candidates for PolicyNewest. Empty means DefaultPattern.
	Pattern string
}

// Selection is the chosen artifact and how many candidates competed for it.
type Selection struct {
	Artifact   Artifact
	Candidates int
}

// Ambiguous reports whether more than one candidate was found.
func (s Selection) Ambiguous() bool {
	return s.Candidates > 1
}

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case PolicyFirst, PolicyNewest:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Select picks an artifact from dir. Directories and dot files are never
// candidates.
func Select(dir string, opts Options) (Selection, error) {
	if opts.Policy != PolicyFirst && opts.Policy != PolicyNewest {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, opts.Policy)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Selection{}, fmt.Errorf("%w in %s: %w", ErrNoArtifact, dir, err)
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	var candidates []Artifact
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if opts.Policy == PolicyNewest {
			ok, err := filepath.Match(pattern, name)
			if err != nil {
				return Selection{}, fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			// removed between listing and stat
			continue
		}
		candidates = append(candidates, Artifact{
			Path:    filepath.Join(dir, name),
			Name:    name,
			ModTime: info.ModTime(),
		})
	}
	if len(candidates) == 0 {
		if opts.Policy == PolicyNewest {
			return Selection{}, fmt.Errorf("%w: nothing matches %s in %s", ErrNoArtifact, pattern, dir)
		}
		return Selection{}, fmt.Errorf("%w: %s is empty", ErrNoArtifact, dir)
	}

	chosen := candidates[0]
	if opts.Policy == PolicyNewest {
		chosen = newest(candidates)
	}
	return Selection{Artifact: chosen, Candidates: len(candidates)}, nil
}

func newest(candidates []Artifact) Artifact {
	chosen := candidates[0]
	for _, c := range candidates[1:] {
		if newer(c, chosen) {
			chosen = c
		}
	}
	return chosen
}

// newer reports whether a should win over b. Equal timestamps fall back to
// the wheel version, then to the file name. Names that are not wheel file
// names rank below those that are.
func newer(a, b Artifact) bool {
	if !a.ModTime.Equal(b.ModTime) {
		return a.ModTime.After(b.ModTime)
	}
	an, aerr := wheel.ParseName(a.Name)
	bn, berr := wheel.ParseName(b.Name)
	switch {
	case aerr == nil && berr != nil:
		return true
	case aerr != nil && berr == nil:
		return false
	case aerr == nil:
		if c := gnu.Compare(an.Version, bn.Version); c != 0 {
			return c > 0
		}
	}
	return a.Name > b.Name
}
