package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cupsy/internal/app/run"
)

type rootFlags struct {
	verbose bool
	dryRun  bool
	server  string
	user    string
}

func (f *rootFlags) logLevel() string {
	if f.verbose {
		return "debug"
	}
	return "info"
}

// clientFactory is replaced in tests with an in-memory printing service.
var clientFactory run.ClientFactory = run.DefaultClientFactory

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "cupsy",
		Short:         "cupsy reconciles CUPS printers and classes against a declared state",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Report whether changes are needed without making them")
	cmd.PersistentFlags().StringVar(&flags.server, "server", "", "CUPS server as host[:port] (default: local server)")
	cmd.PersistentFlags().StringVar(&flags.user, "user", "", "User name passed to the CUPS tools")

	cmd.AddCommand(newApplyCmd(flags))
	cmd.AddCommand(newModuleCmd(flags))
	cmd.AddCommand(newFactsCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
