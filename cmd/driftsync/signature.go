package main

import (
	"github.com/dustin/go-humanize"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/driftsync-io/driftsync/cmd"
	"github.com/driftsync-io/driftsync/pkg/signature"
)

// hashValue adapts a signature.HashKind to the pflag.Value interface.
type hashValue struct {
	// kind is the underlying hash kind.
	kind *signature.HashKind
}

var _ pflag.Value = &hashValue{}

// String implements pflag.Value.String.
func (v *hashValue) String() string {
	return v.kind.String()
}

// Set implements pflag.Value.Set.
func (v *hashValue) Set(value string) error {
	switch value {
	case "md4":
		*v.kind = signature.MD4
	case "blake2":
		*v.kind = signature.BLAKE2
	default:
		return errors.Errorf("unknown hash %q", value)
	}
	return nil
}

// Type implements pflag.Value.Type.
func (v *hashValue) Type() string {
	return "hash"
}

func signatureMain(command *cobra.Command, arguments []string) error {
	// Parse arguments. Both operands default to the standard streams.
	if len(arguments) > 2 {
		return errors.New("too many arguments")
	}
	var basePath, signaturePath string
	if len(arguments) > 0 {
		basePath = arguments[0]
	}
	if len(arguments) > 1 {
		signaturePath = arguments[1]
	}

	// Warn about aggressive strong hash truncation, which makes collisions
	// (and thus corrupt reconstructions) plausible for large bases.
	if strong := signatureConfiguration.strongSize; strong > 0 && strong < 8 {
		cmd.Warning("strong hashes truncated below 8 bytes are vulnerable to collisions")
	}

	// Open the base.
	base, err := openInput(basePath)
	if err != nil {
		return err
	}
	defer base.Close()

	// Create the signature destination.
	destination, err := createOutput(signaturePath)
	if err != nil {
		return err
	}
	output := &countingWriter{writer: destination}

	// Generate the signature.
	logger := rootLogger.Sublogger("signature")
	if err := signature.Generate(
		output, base,
		signatureConfiguration.blockSize,
		signatureConfiguration.strongSize,
		signatureConfiguration.hash,
		logger,
	); err != nil {
		destination.Close()
		return errors.Wrap(err, "unable to generate signature")
	}

	// Finalize the destination and report.
	if err := destination.Close(); err != nil {
		return errors.Wrap(err, "unable to finalize signature")
	}
	logger.Debugf("wrote %s signature", humanize.Bytes(output.written))

	// Success.
	return nil
}

var signatureCommand = &cobra.Command{
	Use:   "signature [<base> [<signature>]]",
	Short: "Generate the block-checksum signature of base data",
	Run:   cmd.Mainify(signatureMain),
}

var signatureConfiguration = struct {
	// help indicates whether or not help information should be shown for the
	// command.
	help bool
	// blockSize is the signature block length in bytes.
	blockSize uint32
	// strongSize is the truncated strong hash length in bytes, with 0
	// selecting the hash's native digest size.
	strongSize uint32
	// hash is the strong hash family.
	hash signature.HashKind
}{
	hash: signature.BLAKE2,
}

func init() {
	// Grab a handle for the command line flags.
	flags := signatureCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Manually add a help flag to override the default message. Cobra will
	// still implement its logic automatically.
	flags.BoolVarP(&signatureConfiguration.help, "help", "h", false, "Show help information")

	// Wire up signature flags.
	flags.Uint32VarP(&signatureConfiguration.blockSize, "block-size", "b", 2048, "Signature block size in bytes")
	flags.Uint32VarP(&signatureConfiguration.strongSize, "strong-size", "S", 0, "Truncated strong hash size in bytes (0 for full size)")
	flags.Var(&hashValue{&signatureConfiguration.hash}, "hash", "Strong hash to use (md4|blake2)")
}
