package record

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "target", "wheels")

	now := time.Now().Truncate(time.Second)
	r := &Record{}
	r.Set("chainner_ext", &Entry{
		Wheel:       "chainner_ext-0.3.10-cp38-abi3-manylinux_2_28_x86_64.whl",
		Fingerprint: "abc123",
		InstallTime: now,
	})
	if err := r.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e, ok := loaded.Get("Chainner-Ext")
	if !ok {
		t.Fatal("entry not found under a differently spelled name")
	}
	if e.Fingerprint != "abc123" {
		t.Errorf("Fingerprint = %q, want %q", e.Fingerprint, "abc123")
	}
	if !e.InstallTime.Equal(now) {
		t.Errorf("InstallTime = %v, want %v", e.InstallTime, now)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != File {
		t.Errorf("Save left %d entries in %s, want only %s", len(entries), dir, File)
	}
}

func TestLoadNotExist(t *testing.T) {
	r, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := r.Get("anything"); ok {
		t.Fatal("empty record returned an entry")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, File), []byte("invalid json"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestUnchanged(t *testing.T) {
	r := &Record{}
	if r.Unchanged("pkg", "pkg-1.0-py3-none-any.whl", "f1") {
		t.Fatal("empty record reported unchanged")
	}
	r.Set("pkg", &Entry{Wheel: "pkg-1.0-py3-none-any.whl", Fingerprint: "f1"})

	tests := []struct {
		wheel, fp string
		want      bool
	}{
		{"pkg-1.0-py3-none-any.whl", "f1", true},
		{"pkg-1.0-py3-none-any.whl", "f2", false},
		{"pkg-1.1-py3-none-any.whl", "f1", false},
	}
	for _, tt := range tests {
		if got := r.Unchanged("pkg", tt.wheel, tt.fp); got != tt.want {
			t.Errorf("Unchanged(%q, %q) = %v, want %v", tt.wheel, tt.fp, got, tt.want)
		}
	}
}
