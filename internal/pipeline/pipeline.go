package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chainner-org/devinstall/internal/artifact"
	"github.com/chainner-org/devinstall/internal/lock"
	"github.com/chainner-org/devinstall/internal/record"
	"github.com/chainner-org/devinstall/pkgs/buildsys"
	"github.com/chainner-org/devinstall/pkgs/pip"
	"github.com/chainner-org/devinstall/pkgs/wheel"
	"github.com/qiniu/x/log"
)

// PackageInstaller removes and installs Python distributions.
type PackageInstaller interface {
	Uninstall(ctx context.Context, name string) error
	Install(ctx context.Context, target string, opts pip.InstallOptions) error
}

type Options struct {
	// Toolchain pins the build tool version; empty skips the bootstrap step.
	Toolchain string
	// Package is the distribution uninstalled before the new wheel goes in.
	Package string
	// OutDir overrides the build system's output directory.
	OutDir string

	Select  artifact.Options
	Install pip.InstallOptions

	// KeepGoing logs bootstrap and build failures instead of stopping.
	KeepGoing bool
	// SkipUnchanged skips uninstall and install when the selected wheel is
	// the one recorded by the last successful run.
	SkipUnchanged bool
	// BuildEnv is passed to the build system only.
	BuildEnv map[string]string
	// DryRun takes no lock and writes no record.
	DryRun bool

	// Step is called with a short description before each step.
	Step func(msg string)
}

// Result describes what a run did.
type Result struct {
	// Artifact is nil when a dry run found nothing to install yet.
	Artifact   *artifact.Artifact
	Candidates int
	// Skipped is set when SkipUnchanged found the wheel already installed.
	Skipped bool
	// Ignored collects failures that did not stop the run.
	Ignored []error
}

// Installer rebuilds a wheel and swaps it into the Python environment.
type Installer struct {
	bs   buildsys.BuildSystem
	pkgs PackageInstaller
	opts Options
}

func New(bs buildsys.BuildSystem, pkgs PackageInstaller, opts Options) *Installer {
	for k, v := range opts.BuildEnv {
		bs.Env(k, v)
	}
	return &Installer{bs: bs, pkgs: pkgs, opts: opts}
}

func (in *Installer) outDir() string {
	if in.opts.OutDir != "" {
		return in.opts.OutDir
	}
	return in.bs.OutputDir()
}

func (in *Installer) step(format string, args ...any) {
	if in.opts.Step != nil {
		in.opts.Step(fmt.Sprintf(format, args...))
	}
}

// Build runs the bootstrap and build steps. With KeepGoing, failures are
// returned as ignored errors instead.
func (in *Installer) Build(ctx context.Context) (ignored []error, err error) {
	tolerate := func(err error) error {
		if !in.opts.KeepGoing {
			return err
		}
		log.Warnf("%v (continuing)", err)
		ignored = append(ignored, err)
		return nil
	}

	if v := in.opts.Toolchain; v != "" {
		in.step("Installing maturin %s", v)
		if err := in.bs.Bootstrap(ctx, v); err != nil {
			if err := tolerate(fmt.Errorf("bootstrap build tool: %w", err)); err != nil {
				return ignored, err
			}
		}
	}

	in.step("Building wheel")
	if err := in.bs.Build(ctx); err != nil {
		if err := tolerate(fmt.Errorf("build: %w", err)); err != nil {
			return ignored, err
		}
	}
	return ignored, nil
}

// Uninstall removes the package. Failures, including the package not being
// installed, are logged and returned, never fatal.
func (in *Installer) Uninstall(ctx context.Context) error {
	in.step("Uninstalling %s", in.opts.Package)
	if err := in.pkgs.Uninstall(ctx, in.opts.Package); err != nil {
		err = fmt.Errorf("uninstall %s: %w", in.opts.Package, err)
		log.Warnf("%v (ignored)", err)
		return err
	}
	return nil
}

// Select picks the artifact to install from the output directory.
func (in *Installer) Select() (artifact.Selection, error) {
	dir := in.outDir()
	sel, err := artifact.Select(dir, in.opts.Select)
	if err != nil {
		return sel, err
	}
	if sel.Ambiguous() && in.opts.Select.Policy == artifact.PolicyFirst {
		log.Warnf("%d artifacts in %s, picked %s by name order; use the newest policy to pick the latest build",
			sel.Candidates, dir, sel.Artifact.Name)
	}
	log.Debugf("selected %s (%d candidates, modified %s)",
		sel.Artifact.Path, sel.Candidates, sel.Artifact.ModTime.Format(time.RFC3339))
	return sel, nil
}

// Run performs bootstrap, build, uninstall, selection and install in order.
func (in *Installer) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	dir := in.outDir()

	if !in.opts.DryRun {
		unlock, err := lock.Acquire(filepath.Join(dir, lock.FileName))
		if err != nil {
			return res, err
		}
		defer unlock()
	}

	ignored, err := in.Build(ctx)
	res.Ignored = append(res.Ignored, ignored...)
	if err != nil {
		return res, err
	}

	rec, err := record.Load(dir)
	if err != nil {
		log.Warnf("ignoring unreadable install record: %v", err)
		rec = &record.Record{}
	}

	if in.opts.SkipUnchanged {
		if sel, err := artifact.Select(dir, in.opts.Select); err == nil {
			fp, err := wheel.Fingerprint(sel.Artifact.Path)
			if err == nil && rec.Unchanged(in.opts.Package, sel.Artifact.Name, fp) {
				in.step("%s is already installed from %s", in.opts.Package, sel.Artifact.Name)
				res.Artifact = &sel.Artifact
				res.Candidates = sel.Candidates
				res.Skipped = true
				return res, nil
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := in.Uninstall(ctx); err != nil {
		res.Ignored = append(res.Ignored, err)
	}

	sel, err := in.Select()
	if err != nil {
		if in.opts.DryRun && errors.Is(err, artifact.ErrNoArtifact) {
			log.Infof("dry run: %v; install would use the wheel the build produces", err)
			return res, nil
		}
		return res, err
	}
	res.Artifact = &sel.Artifact
	res.Candidates = sel.Candidates
	in.checkName(sel.Artifact)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	in.step("Installing %s", sel.Artifact.Name)
	if err := in.pkgs.Install(ctx, sel.Artifact.Path, in.opts.Install); err != nil {
		return res, fmt.Errorf("install %s: %w", sel.Artifact.Name, err)
	}

	if !in.opts.DryRun {
		in.remember(rec, sel.Artifact)
	}
	return res, nil
}

// checkName warns when the wheel is for a different distribution than the
// one uninstalled, which leaves the old package in place.
func (in *Installer) checkName(a artifact.Artifact) {
	dist := ""
	if n, err := wheel.ParseName(a.Name); err == nil {
		dist = n.Distribution
	} else if md, err := wheel.ReadMetadata(a.Path); err == nil {
		dist = md.Name
		log.Debugf("%s: read %s %s from metadata", a.Name, md.Name, md.Version)
	} else {
		log.Debugf("%s: cannot tell distribution name: %v", a.Name, err)
		return
	}
	if wheel.NormalizeName(dist) != wheel.NormalizeName(in.opts.Package) {
		log.Warnf("%s provides %q but %q was uninstalled", a.Name, dist, in.opts.Package)
	}
}

func (in *Installer) remember(rec *record.Record, a artifact.Artifact) {
	fp, err := wheel.Fingerprint(a.Path)
	if err != nil {
		log.Warnf("fingerprint %s: %v", a.Name, err)
		return
	}
	rec.Set(in.opts.Package, &record.Entry{
		Wheel:       a.Name,
		Fingerprint: fp,
		InstallTime: time.Now(),
	})
	if err := rec.Save(in.outDir()); err != nil {
		log.Warnf("save install record: %v", err)
	}
}
