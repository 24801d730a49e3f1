package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/driftsync-io/driftsync/cmd"
)

// rootMain is the entry point for the root command. Invoking the root command
// without a subcommand simply displays help information.
func rootMain(command *cobra.Command, arguments []string) error {
	return command.Help()
}

// rootCommand is the root command.
var rootCommand = &cobra.Command{
	Use:   "driftsync",
	Short: "Delta-compressed stream synchronization",
	Long: `Driftsync computes and applies compact binary deltas between versions of a
stream without requiring both versions to be present at once. It generates
block-checksum signatures of base data, computes deltas of new data against a
signature, and applies deltas to a base to reconstruct the new data, using
signature and delta formats compatible with rdiff.`,
	RunE:         rootMain,
	SilenceUsage: true,
}

var rootConfiguration struct {
	// help indicates whether or not help information should be shown for the
	// command.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := rootCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")

	// Register commands.
	rootCommand.AddCommand(
		signatureCommand,
		deltaCommand,
		patchCommand,
		versionCommand,
	)
}

func main() {
	// Execute the root command.
	if err := rootCommand.Execute(); err != nil {
		cmd.Error(err)
		os.Exit(1)
	}
}
