package internal

import (
	"context"
	"os"
	"os/signal"

	"github.com/gookit/color"
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

// Execute runs the command line and exits non-zero on error.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		colError.Println("error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := newOptions()
	cmd := &cobra.Command{
		Use:   "devinstall",
		Short: "devinstall rebuilds and reinstalls a maturin extension for local development",
		Long: `devinstall builds the extension wheel with maturin, uninstalls the previously
installed distribution, picks the freshly built wheel and installs it with pip.

Running devinstall without a subcommand is the same as "devinstall install".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.verbose {
				log.SetOutputLevel(log.Ldebug)
			}
			if o.noColor {
				color.Disable()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, o)
		},
	}
	o.bindFlags(cmd)

	cmd.AddCommand(
		newInstallCmd(o),
		newBuildCmd(o),
		newSelectCmd(o),
		newUninstallCmd(o),
	)
	return cmd
}
