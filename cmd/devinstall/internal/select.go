package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSelectCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "select",
		Short: "Print the wheel install would pick",
		Long: `Select applies the selection policy to the output directory and prints the
path of the chosen wheel without building or installing anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.loadConfig(cmd)
			if err != nil {
				return err
			}
			sel, err := o.newTools(cmd, cfg).installer(cmd, o.dryRun).Select()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sel.Artifact.Path)
			return err
		},
	}
}
