package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chainner-org/devinstall/internal/config"
	"github.com/chainner-org/devinstall/internal/env"
	"github.com/chainner-org/devinstall/internal/pipeline"
	"github.com/chainner-org/devinstall/internal/shell"
	"github.com/chainner-org/devinstall/pkgs/buildsys/maturin"
	"github.com/chainner-org/devinstall/pkgs/cargo"
	"github.com/chainner-org/devinstall/pkgs/pip"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	dir     string
	verbose bool
	noColor bool
	dryRun  bool
	cfg     config.Config

	env      []string
	buildEnv []string
}

func newOptions() *options {
	return &options{cfg: config.Default()}
}

func (o *options) bindFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.dir, "dir", "C", "", "Project directory (default: nearest parent holding pyproject.toml or the manifest)")
	f.StringVarP(&o.cfg.Manifest, "manifest", "m", o.cfg.Manifest, "Cargo manifest of the extension crate")
	f.StringVarP(&o.cfg.OutDir, "out", "o", o.cfg.OutDir, "Directory the wheels are built into")
	f.BoolVar(&o.cfg.Release, "release", o.cfg.Release, "Build in release mode")
	f.StringSliceVar(&o.cfg.Features, "features", nil, "Cargo features to enable")
	f.StringVar(&o.cfg.Toolchain, "toolchain", "", "Install this maturin version before building")
	f.StringVarP(&o.cfg.Package, "package", "p", "", "Distribution to uninstall (default: from pyproject.toml or the manifest)")
	f.StringVar(&o.cfg.Python, "python", "", "Interpreter to build for and to run pip with")
	f.BoolVar(&o.cfg.ForceReinstall, "force-reinstall", false, "Pass --force-reinstall to pip")
	f.BoolVar(&o.cfg.NoDeps, "no-deps", false, "Pass --no-deps to pip")
	f.StringVar(&o.cfg.Policy, "policy", o.cfg.Policy, "Wheel selection policy: newest or first")
	f.StringVar(&o.cfg.Pattern, "pattern", o.cfg.Pattern, "Glob the newest policy matches wheels with")
	f.BoolVar(&o.cfg.KeepGoing, "keep-going", false, "Continue after bootstrap or build failures")
	f.BoolVar(&o.cfg.SkipUnchanged, "skip-unchanged", false, "Skip reinstalling a wheel identical to the last one installed")
	f.StringArrayVarP(&o.env, "env", "e", nil, "Set KEY=VALUE for every command (repeatable)")
	f.StringArrayVar(&o.buildEnv, "build-env", nil, "Set KEY=VALUE for maturin only (repeatable)")
	f.BoolVarP(&o.dryRun, "dry-run", "n", false, "Print commands instead of running them")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
}

// loadConfig resolves the project directory, changes into it and layers
// pyproject.toml settings and explicitly set flags over the defaults.
func (o *options) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir := o.dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir, err = env.ProjectDir(wd, config.PyProject, filepath.FromSlash(o.cfg.Manifest))
		if err != nil {
			log.Debugf("%v, using %s", err, wd)
			dir = wd
		}
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	// External tools see the same relative paths as the config.
	if err := os.Chdir(dir); err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	log.Debugf("project directory %s", dir)

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("manifest", func() { cfg.Manifest = o.cfg.Manifest })
	set("out", func() { cfg.OutDir = o.cfg.OutDir })
	set("release", func() { cfg.Release = o.cfg.Release })
	set("features", func() { cfg.Features = o.cfg.Features })
	set("toolchain", func() { cfg.Toolchain = o.cfg.Toolchain })
	set("package", func() { cfg.Package = o.cfg.Package })
	set("python", func() { cfg.Python = o.cfg.Python })
	set("force-reinstall", func() { cfg.ForceReinstall = o.cfg.ForceReinstall })
	set("no-deps", func() { cfg.NoDeps = o.cfg.NoDeps })
	set("policy", func() { cfg.Policy = o.cfg.Policy })
	set("pattern", func() { cfg.Pattern = o.cfg.Pattern })
	set("keep-going", func() { cfg.KeepGoing = o.cfg.KeepGoing })
	set("skip-unchanged", func() { cfg.SkipUnchanged = o.cfg.SkipUnchanged })

	env, err := config.ParseEnv(o.env)
	if err != nil {
		return nil, err
	}
	buildEnv, err := config.ParseEnv(o.buildEnv)
	if err != nil {
		return nil, err
	}
	config.SetEnv(&cfg.Env, env)
	config.SetEnv(&cfg.BuildEnv, buildEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// tools are the collaborators built from one configuration.
type tools struct {
	cfg    *config.Config
	runner *shell.Runner
	pip    *pip.Pip
	build  *maturin.Maturin
}

func (o *options) newTools(cmd *cobra.Command, cfg *config.Config) *tools {
	r := shell.New()
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()
	r.DryRun = o.dryRun
	for k, v := range cfg.Env {
		r.Env(k, v)
	}

	p := pip.New(r).Python(cfg.Python)
	m := maturin.New(r).
		Manifest(filepath.ToSlash(cfg.Manifest)).
		Out(cfg.OutDir).
		Release(cfg.Release).
		Interpreter(cfg.Python).
		Features(cfg.Features...).
		Installer(p.Command()...)
	return &tools{cfg: cfg, runner: r, pip: p, build: m}
}

func (t *tools) installer(cmd *cobra.Command, dryRun bool) *pipeline.Installer {
	return pipeline.New(t.build, t.pip, pipeline.Options{
		Toolchain: t.cfg.Toolchain,
		Package:   t.cfg.Package,
		OutDir:    t.cfg.OutPath(),
		Select:    t.cfg.SelectOptions(),
		Install: pip.InstallOptions{
			ForceReinstall: t.cfg.ForceReinstall,
			NoDeps:         t.cfg.NoDeps,
		},
		KeepGoing:     t.cfg.KeepGoing,
		SkipUnchanged: t.cfg.SkipUnchanged,
		BuildEnv:      t.cfg.BuildEnv,
		DryRun:        dryRun,
		Step:          stepPrinter(cmd.ErrOrStderr()),
	})
}

// checkManifest warns when the crate cannot produce an extension module.
// An unreadable manifest is left for maturin to report.
func checkManifest(cmd *cobra.Command, cfg *config.Config) {
	m, err := cargo.Load(cfg.ManifestPath())
	if err != nil {
		log.Debugf("skip manifest check: %v", err)
		return
	}
	if !m.IsExtension() {
		fmt.Fprintln(cmd.ErrOrStderr(), colWarn.Sprintf(
			"%s: [lib] crate-type does not include cdylib, the build will not produce an extension module", cfg.Manifest))
	}
}
