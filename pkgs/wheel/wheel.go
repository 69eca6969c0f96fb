// Package wheel reads what devinstall needs to know about built wheels:
// the fields encoded in their file names, the core metadata inside the
// archive and a content fingerprint.
package wheel

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/klauspost/compress/zip"
	"lukechampine.com/blake3"
)

// Ext is the wheel file extension.
const Ext = ".whl"

var (
	ErrInvalidName = errors.New("invalid wheel file name")
	ErrNoMetadata  = errors.New("wheel has no dist-info METADATA")
)

// Name holds the fields of a wheel file name:
//
//	{distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl
type Name struct {
	Distribution string
	Version      string
	Build        string
	Python       string
	ABI          string
	Platform     string
}

// ParseName parses the base name of a wheel file.
func ParseName(file string) (Name, error) {
	base := path.Base(strings.ReplaceAll(file, `\`, "/"))
	stem, ok := strings.CutSuffix(base, Ext)
	if !ok {
		return Name{}, fmt.Errorf("%w: %q: missing %s extension", ErrInvalidName, base, Ext)
	}
	parts := strings.Split(stem, "-")
	for _, p := range parts {
		if p == "" {
			return Name{}, fmt.Errorf("%w: %q: empty component", ErrInvalidName, base)
		}
	}
	var n Name
	switch len(parts) {
	case 5:
		n = Name{parts[0], parts[1], "", parts[2], parts[3], parts[4]}
	case 6:
		if parts[2][0] < '0' || parts[2][0] > '9' {
			return Name{}, fmt.Errorf("%w: %q: build tag must start with a digit", ErrInvalidName, base)
		}
		n = Name{parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]}
	default:
		return Name{}, fmt.Errorf("%w: %q: want 5 or 6 dash-separated components, got %d", ErrInvalidName, base, len(parts))
	}
	return n, nil
}

var separators = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical form of a distribution name, so that
// "Chainner_Ext", "chainner-ext" and "chainner.ext" compare equal.
func NormalizeName(name string) string {
	return strings.ToLower(separators.ReplaceAllString(name, "-"))
}

// Metadata is the subset of the core metadata devinstall reads.
type Metadata struct {
	Name    string
	Version string
}

// ReadMetadata reads Name and Version from the wheel's
// <name>.dist-info/METADATA file.
func ReadMetadata(file string) (Metadata, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return Metadata{}, err
	}
	defer zr.Close()

	for _, f := range zr.File {
		dir, name, ok := strings.Cut(f.Name, "/")
		if !ok || name != "METADATA" || !strings.HasSuffix(dir, ".dist-info") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return Metadata{}, err
		}
		defer rc.Close()
		return parseMetadata(rc)
	}
	return Metadata{}, fmt.Errorf("%w: %s", ErrNoMetadata, file)
}

// parseMetadata reads RFC 822 style headers up to the first blank line.
func parseMetadata(r io.Reader) (Metadata, error) {
	var md Metadata
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			md.Name = strings.TrimSpace(val)
		case "version":
			md.Version = strings.TrimSpace(val)
		}
	}
	if err := s.Err(); err != nil {
		return Metadata{}, err
	}
	if md.Name == "" {
		return Metadata{}, ErrNoMetadata
	}
	return md, nil
}

// Fingerprint returns the hex blake3-256 digest of a file's content.
func Fingerprint(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
