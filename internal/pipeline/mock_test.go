package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/chainner-org/devinstall/pkgs/pip"
)

// events is the ordered log of calls made by the fakes.
type events []string

// mockBuild implements buildsys.BuildSystem, optionally writing a wheel
// into its output directory on Build.
type mockBuild struct {
	log          *events
	outDir       string
	produce      string
	mtime        time.Time
	bootstrapErr error
	buildErr     error
	env          map[string]string
}

func (m *mockBuild) Bootstrap(ctx context.Context, version string) error {
	*m.log = append(*m.log, "bootstrap "+version)
	return m.bootstrapErr
}

func (m *mockBuild) Env(key, val string) {
	if m.env == nil {
		m.env = map[string]string{}
	}
	m.env[key] = val
}

func (m *mockBuild) Build(ctx context.Context, args ...string) error {
	*m.log = append(*m.log, "build")
	if m.buildErr != nil {
		return m.buildErr
	}
	if m.produce != "" {
		p := filepath.Join(m.outDir, m.produce)
		if err := os.WriteFile(p, []byte(m.produce), 0o644); err != nil {
			return err
		}
		if !m.mtime.IsZero() {
			return os.Chtimes(p, m.mtime, m.mtime)
		}
	}
	return nil
}

func (m *mockBuild) OutputDir() string {
	return m.outDir
}

// mockPip implements PackageInstaller.
type mockPip struct {
	log          *events
	uninstallErr error
	installErr   error
}

func (m *mockPip) Uninstall(ctx context.Context, name string) error {
	*m.log = append(*m.log, "uninstall "+name)
	return m.uninstallErr
}

func (m *mockPip) Install(ctx context.Context, target string, opts pip.InstallOptions) error {
	*m.log = append(*m.log, "install "+filepath.Base(target))
	return m.installErr
}
