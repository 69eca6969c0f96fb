package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUninstallCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall",
		Short: "Uninstall the package from the Python environment",
		Long: `Uninstall removes the package the way install does before installing a new
wheel. A failing pip is reported but does not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ResolvePackage(); err != nil {
				return err
			}
			in := o.newTools(cmd, cfg).installer(cmd, o.dryRun)
			if err := in.Uninstall(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), colWarn.Sprintf("%v (ignored)", err))
			}
			return nil
		},
	}
}
