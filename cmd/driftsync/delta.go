package main

import (
	"github.com/dustin/go-humanize"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/driftsync-io/driftsync/cmd"
	"github.com/driftsync-io/driftsync/pkg/delta"
	"github.com/driftsync-io/driftsync/pkg/signature"
)

func deltaMain(command *cobra.Command, arguments []string) error {
	// Parse arguments. The signature operand is required; new data and delta
	// operands default to the standard streams.
	if len(arguments) < 1 {
		return errors.New("signature path not specified")
	} else if len(arguments) > 3 {
		return errors.New("too many arguments")
	}
	signaturePath := arguments[0]
	var targetPath, deltaPath string
	if len(arguments) > 1 {
		targetPath = arguments[1]
	}
	if len(arguments) > 2 {
		deltaPath = arguments[2]
	}

	// Load the signature.
	signatureSource, err := openInput(signaturePath)
	if err != nil {
		return err
	}
	sig, err := signature.Load(signatureSource)
	signatureSource.Close()
	if err != nil {
		return errors.Wrap(err, "unable to load signature")
	}

	// Open the new data.
	target, err := openInput(targetPath)
	if err != nil {
		return err
	}
	defer target.Close()

	// Create the delta destination.
	destination, err := createOutput(deltaPath)
	if err != nil {
		return err
	}
	output := &countingWriter{writer: destination}

	// Compute the delta.
	logger := rootLogger.Sublogger("delta")
	if err := delta.Generate(output, target, sig, logger); err != nil {
		destination.Close()
		return errors.Wrap(err, "unable to compute delta")
	}

	// Finalize the destination and report.
	if err := destination.Close(); err != nil {
		return errors.Wrap(err, "unable to finalize delta")
	}
	logger.Debugf("wrote %s delta against %d-block signature", humanize.Bytes(output.written), len(sig.Blocks))

	// Success.
	return nil
}

var deltaCommand = &cobra.Command{
	Use:   "delta <signature> [<new> [<delta>]]",
	Short: "Compute the delta between new data and a base signature",
	Run:   cmd.Mainify(deltaMain),
}

var deltaConfiguration struct {
	// help indicates whether or not help information should be shown for the
	// command.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := deltaCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&deltaConfiguration.help, "help", "h", false, "Show help information")
}
