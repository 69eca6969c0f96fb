package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// touch creates dir/name with the given modification time.
func touch(t *testing.T, dir, name string, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestSelectNewest(t *testing.T) {
	// The newest wheel sits first, in the middle and last in name order.
	names := []string{
		"chainner_ext-0.1.0-cp38-abi3-manylinux_2_28_x86_64.whl",
		"chainner_ext-0.2.0-cp38-abi3-manylinux_2_28_x86_64.whl",
		"chainner_ext-0.3.0-cp38-abi3-manylinux_2_28_x86_64.whl",
	}
	for newestIdx := range names {
		t.Run(names[newestIdx], func(t *testing.T) {
			dir := t.TempDir()
			for i, name := range names {
				mtime := base.Add(time.Duration(i) * time.Minute)
				if i == newestIdx {
					mtime = base.Add(time.Hour)
				}
				touch(t, dir, name, mtime)
			}
			touch(t, dir, "build.log", base.Add(2*time.Hour))

			sel, err := Select(dir, Options{Policy: PolicyNewest})
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if sel.Artifact.Name != names[newestIdx] {
				t.Errorf("selected %q, want %q", sel.Artifact.Name, names[newestIdx])
			}
			if sel.Artifact.Path != filepath.Join(dir, names[newestIdx]) {
				t.Errorf("Path = %q", sel.Artifact.Path)
			}
			if sel.Candidates != len(names) {
				t.Errorf("Candidates = %d, want %d", sel.Candidates, len(names))
			}
		})
	}
}

func TestNewestOrderIndependent(t *testing.T) {
	a := Artifact{Name: "a.whl", ModTime: base}
	b := Artifact{Name: "b.whl", ModTime: base.Add(time.Second)}
	c := Artifact{Name: "c.whl", ModTime: base.Add(-time.Second)}
	perms := [][]Artifact{
		{a, b, c}, {a, c, b}, {b, a, c}, {b, c, a}, {c, a, b}, {c, b, a},
	}
	for _, p := range perms {
		if got := newest(p); got.Name != "b.whl" {
			t.Errorf("newest(%v) = %q, want b.whl", p, got.Name)
		}
	}
}

func TestNewestTieBreak(t *testing.T) {
	older := Artifact{Name: "pkg-0.3.9-py3-none-any.whl", ModTime: base}
	later := Artifact{Name: "pkg-0.3.10-py3-none-any.whl", ModTime: base}
	if got := newest([]Artifact{later, older}); got.Name != later.Name {
		t.Errorf("version tie-break picked %q, want %q", got.Name, later.Name)
	}
	if got := newest([]Artifact{older, later}); got.Name != later.Name {
		t.Errorf("version tie-break picked %q, want %q", got.Name, later.Name)
	}

	x := Artifact{Name: "x.whl", ModTime: base}
	y := Artifact{Name: "y.whl", ModTime: base}
	if got := newest([]Artifact{y, x}); got.Name != "y.whl" {
		t.Errorf("name tie-break picked %q, want y.whl", got.Name)
	}
}

func TestNewestTieBreakMixedNames(t *testing.T) {
	high := Artifact{Name: "x-10.0-py3-none-any.whl", ModTime: base}
	low := Artifact{Name: "x-2.0-py3-none-any.whl", ModTime: base}
	odd := Artifact{Name: "x-1z.whl", ModTime: base}
	perms := [][]Artifact{
		{high, low, odd}, {high, odd, low}, {low, high, odd},
		{low, odd, high}, {odd, high, low}, {odd, low, high},
	}
	for _, p := range perms {
		if got := newest(p); got.Name != high.Name {
			t.Errorf("newest(%s, %s, %s) = %q, want %q",
				p[0].Name, p[1].Name, p[2].Name, got.Name, high.Name)
		}
	}

	dir := t.TempDir()
	for _, a := range []Artifact{high, low, odd} {
		touch(t, dir, a.Name, base)
	}
	sel, err := Select(dir, Options{Policy: PolicyNewest})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Artifact.Name != high.Name {
		t.Errorf("selected %q, want %q", sel.Artifact.Name, high.Name)
	}
}

func TestNewerUnparsedRanksLower(t *testing.T) {
	wheelName := Artifact{Name: "a-1.0-py3-none-any.whl", ModTime: base}
	other := Artifact{Name: "zzz.whl", ModTime: base}
	if !newer(wheelName, other) || newer(other, wheelName) {
		t.Errorf("unparsable name should lose a timestamp tie")
	}
}

func TestSelectNewestPattern(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "pkg-1.0.tar.gz", base.Add(time.Hour))
	touch(t, dir, "pkg-1.0-py3-none-any.whl", base)

	sel, err := Select(dir, Options{Policy: PolicyNewest, Pattern: "*.tar.gz"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Artifact.Name != "pkg-1.0.tar.gz" {
		t.Errorf("selected %q", sel.Artifact.Name)
	}

	if _, err := Select(dir, Options{Policy: PolicyNewest, Pattern: "[*.whl"}); err == nil || errors.Is(err, ErrNoArtifact) {
		t.Errorf("bad pattern error = %v", err)
	}
}

func TestSelectNewestNoMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "notes.txt", base)
	if err := os.Mkdir(filepath.Join(dir, "sub.whl"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Select(dir, Options{Policy: PolicyNewest})
	if !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("Select error = %v, want ErrNoArtifact", err)
	}
}

func TestSelectMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "target", "wheels")
	for _, p := range []Policy{PolicyFirst, PolicyNewest} {
		_, err := Select(dir, Options{Policy: p})
		if !errors.Is(err, ErrNoArtifact) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Select(%s) error = %v, want ErrNoArtifact wrapping ErrNotExist", p, err)
		}
	}
}

func TestSelectFirstSingle(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "chainner_rs-0.1.0-cp38-abi3-win_amd64.whl", base)
	touch(t, dir, ".devinstall.json", base.Add(time.Hour))
	if err := os.Mkdir(filepath.Join(dir, "a-subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	sel, err := Select(dir, Options{Policy: PolicyFirst})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Artifact.Name != "chainner_rs-0.1.0-cp38-abi3-win_amd64.whl" {
		t.Errorf("selected %q", sel.Artifact.Name)
	}
	if sel.Ambiguous() {
		t.Errorf("single candidate reported as ambiguous")
	}
}

func TestSelectFirstEmpty(t *testing.T) {
	if _, err := Select(t.TempDir(), Options{Policy: PolicyFirst}); !errors.Is(err, ErrNoArtifact) {
		t.Fatalf("Select error = %v, want ErrNoArtifact", err)
	}
}

// With several files the first policy depends on naming, not on which
// file the last build produced. Only the ambiguity signal is asserted.
func TestSelectFirstMultipleIsAmbiguous(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b-1.0-py3-none-any.whl", base)
	touch(t, dir, "a-1.0-py3-none-any.whl", base.Add(time.Hour))

	sel, err := Select(dir, Options{Policy: PolicyFirst})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !sel.Ambiguous() || sel.Candidates != 2 {
		t.Errorf("Candidates = %d, Ambiguous = %v; want 2, true", sel.Candidates, sel.Ambiguous())
	}
}

func TestSelectUnknownPolicy(t *testing.T) {
	if _, err := Select(t.TempDir(), Options{Policy: "oldest"}); !errors.Is(err, ErrUnknownPolicy) {
		t.Fatalf("Select error = %v, want ErrUnknownPolicy", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"first", PolicyFirst, false},
		{"NEWEST", PolicyNewest, false},
		{"", "", true},
		{"latest", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, %v", tt.in, got, err)
		}
	}
}
