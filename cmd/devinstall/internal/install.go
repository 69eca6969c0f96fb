package internal

import (
	"fmt"

	"github.com/chainner-org/devinstall/internal/env"
	"github.com/chainner-org/devinstall/internal/pipeline"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

func newInstallCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Build the wheel and reinstall it",
		Long: `Install runs the whole cycle: optionally installs the pinned maturin, builds the
wheel, uninstalls the previous distribution, selects the new wheel and installs it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, o)
		},
	}
}

func runInstall(cmd *cobra.Command, o *options) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ResolvePackage(); err != nil {
		return err
	}
	log.Debugf("package %s, manifest %s, output %s", cfg.Package, cfg.Manifest, cfg.OutDir)
	checkManifest(cmd, cfg)

	if prefix := env.PythonEnv(); prefix != "" {
		log.Infof("python environment %s", prefix)
	} else if cfg.Python == "" {
		log.Warnf("no virtualenv or conda environment is active, pip installs into the base interpreter")
	}

	res, err := o.newTools(cmd, cfg).installer(cmd, o.dryRun).Run(cmd.Context())
	if err != nil {
		return err
	}
	report(cmd, res, o.dryRun)
	return nil
}

func report(cmd *cobra.Command, res *pipeline.Result, dryRun bool) {
	w := cmd.ErrOrStderr()
	switch {
	case res.Skipped:
		fmt.Fprintln(w, colDone.Sprintf("%s is up to date", res.Artifact.Name))
	case res.Artifact != nil && dryRun:
		fmt.Fprintln(w, colDone.Sprintf("Would install %s", res.Artifact.Name))
	case res.Artifact != nil:
		fmt.Fprintln(w, colDone.Sprintf("Installed %s", res.Artifact.Name))
	}
	if n := len(res.Ignored); n > 0 {
		fmt.Fprintln(w, colWarn.Sprintf("%d failed step(s) were ignored:", n))
		for _, err := range res.Ignored {
			fmt.Fprintln(w, "  ", err)
		}
	}
}
