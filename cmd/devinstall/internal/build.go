package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the wheel without installing it",
		Long:  `Build installs the pinned maturin if one is configured and builds the extension wheel.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			checkManifest(cmd, cfg)
			ignored, err := o.newTools(cmd, cfg).installer(cmd, o.dryRun).Build(cmd.Context())
			if err != nil {
				return err
			}
			if len(ignored) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), colWarn.Sprintf("%d failed step(s) were ignored", len(ignored)))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), colDone.Sprintf("Wheels are in %s", cfg.OutDir))
			return nil
		},
	}
}
