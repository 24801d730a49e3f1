package main

import (
	"bytes"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"

	"github.com/driftsync-io/driftsync/cmd"
	"github.com/driftsync-io/driftsync/pkg/patch"
)

func patchMain(command *cobra.Command, arguments []string) error {
	// Parse arguments. The base operand is required; delta and new data
	// operands default to the standard streams.
	if len(arguments) < 1 {
		return errors.New("base path not specified")
	} else if len(arguments) > 3 {
		return errors.New("too many arguments")
	}
	basePath := arguments[0]
	var deltaPath, targetPath string
	if len(arguments) > 1 {
		deltaPath = arguments[1]
	}
	if len(arguments) > 2 {
		targetPath = arguments[2]
	}

	// Open the base. Patching requires random access, so the base has to be a
	// real file rather than a standard stream. Memory map it if possible
	// (falling back to plain file seeking, e.g. for empty files), since copy
	// instructions seek the base liberally.
	logger := rootLogger.Sublogger("patch")
	baseFile, err := os.Open(basePath)
	if err != nil {
		return errors.Wrap(err, "unable to open base file")
	}
	defer baseFile.Close()
	var base io.ReadSeeker = baseFile
	if mapped, err := mmap.Map(baseFile, mmap.RDONLY, 0); err == nil {
		defer mapped.Unmap()
		base = bytes.NewReader(mapped)
		logger.Debugf("mapped %s base", humanize.Bytes(uint64(len(mapped))))
	} else {
		logger.Warn(errors.Wrap(err, "unable to map base file"))
	}

	// Open the delta.
	deltaSource, err := openInput(deltaPath)
	if err != nil {
		return err
	}
	defer deltaSource.Close()

	// Create the reconstruction destination.
	destination, err := createOutput(targetPath)
	if err != nil {
		return err
	}
	output := &countingWriter{writer: destination}

	// Apply the delta.
	if err := patch.Apply(output, base, deltaSource, logger); err != nil {
		destination.Close()
		return errors.Wrap(err, "unable to apply delta")
	}

	// Finalize the destination and report.
	if err := destination.Close(); err != nil {
		return errors.Wrap(err, "unable to finalize output")
	}
	logger.Debugf("reconstructed %s", humanize.Bytes(output.written))

	// Success.
	return nil
}

var patchCommand = &cobra.Command{
	Use:   "patch <base> [<delta> [<new>]]",
	Short: "Apply a delta to base data to reconstruct new data",
	Run:   cmd.Mainify(patchMain),
}

var patchConfiguration struct {
	// help indicates whether or not help information should be shown for the
	// command.
	help bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := patchCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&patchConfiguration.help, "help", "h", false, "Show help information")
}
