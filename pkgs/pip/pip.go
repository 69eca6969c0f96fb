package pip

import (
	"context"
	"slices"
)

// Runner starts one external command and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// InstallOptions tweaks `pip install`.
type InstallOptions struct {
	ForceReinstall bool
	NoDeps         bool
}

// Pip drives the pip package installer.
type Pip struct {
	r   Runner
	cmd []string
}

// New returns a Pip that runs the `pip` found on PATH.
func New(r Runner) *Pip {
	return &Pip{r: r, cmd: []string{"pip"}}
}

// Python switches to `<python> -m pip`, which pins the target environment
// to that interpreter. An empty python keeps plain `pip`.
func (p *Pip) Python(python string) *Pip {
	if python != "" {
		p.cmd = []string{python, "-m", "pip"}
	}
	return p
}

// Command returns the pip command prefix.
func (p *Pip) Command() []string {
	return slices.Clone(p.cmd)
}

// Uninstall removes the named distribution. pip exits zero when the
// distribution is not installed.
func (p *Pip) Uninstall(ctx context.Context, name string) error {
	return p.run(ctx, "uninstall", "--disable-pip-version-check", "-y", name)
}

// Install installs a wheel or requirement.
func (p *Pip) Install(ctx context.Context, target string, opts InstallOptions) error {
	args := []string{"install", "--disable-pip-version-check"}
	if opts.ForceReinstall {
		args = append(args, "--force-reinstall")
	}
	if opts.NoDeps {
		args = append(args, "--no-deps")
	}
	return p.run(ctx, append(args, target)...)
}

func (p *Pip) run(ctx context.Context, args ...string) error {
	argv := append(p.Command(), args...)
	return p.r.Run(ctx, argv[0], argv[1:]...)
}
