package signature

import (
	"io"

	"github.com/driftsync-io/driftsync/pkg/engine"
	"github.com/driftsync-io/driftsync/pkg/logging"
	"github.com/driftsync-io/driftsync/pkg/rollsum"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

// Builder is a streaming engine that partitions base data into blocks,
// computes their weak and strong checksums, and emits a serialized signature.
type Builder struct {
	// blockLength is the configured block length.
	blockLength uint32
	// strongLength is the configured truncated strong hash length.
	strongLength uint32
	// kind is the strong hash family.
	kind HashKind
	// headerEmitted indicates whether the stream header has been written.
	headerEmitted bool
	// block accumulates base bytes until a full block is available.
	block []byte
	// done indicates that the base has been exhausted and all blocks flushed.
	done bool
}

// NewBuilder creates a signature builder with the specified parameters. A
// strong hash length of 0 selects the native digest size of the hash kind.
func NewBuilder(blockLength, strongLength uint32, kind HashKind) (*Builder, error) {
	if strongLength == 0 && (kind == MD4 || kind == BLAKE2) {
		strongLength = uint32(kind.DigestSize())
	}
	if err := validateParameters(blockLength, strongLength, kind); err != nil {
		return nil, err
	}
	return &Builder{
		blockLength:  blockLength,
		strongLength: strongLength,
		kind:         kind,
		block:        make([]byte, 0, blockLength),
	}, nil
}

// appendBlock serializes the checksums of a completed block.
func (b *Builder) appendBlock(output []byte) []byte {
	output = wire.AppendUint(output, uint64(rollsum.Sum(b.block)), 4)
	output = append(output, b.kind.Sum(b.block, b.strongLength)...)
	b.block = b.block[:0]
	return output
}

// Step implements engine.Engine.Step.
func (b *Builder) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	if b.done {
		return 0, output, true, nil
	}

	// Emit the stream header before any blocks.
	if !b.headerEmitted {
		output = wire.AppendSignatureHeader(output, b.kind.magic(), b.blockLength, b.strongLength)
		b.headerEmitted = true
	}

	// Consume input, emitting checksums for each completed block.
	consumed := 0
	for consumed < len(input) {
		space := int(b.blockLength) - len(b.block)
		if space > len(input)-consumed {
			space = len(input) - consumed
		}
		b.block = append(b.block, input[consumed:consumed+space]...)
		consumed += space
		if uint32(len(b.block)) == b.blockLength {
			output = b.appendBlock(output)
		}
	}

	// Once input has ended, flush any partial final block and finish.
	if inputEnded && consumed == len(input) {
		if len(b.block) > 0 {
			output = b.appendBlock(output)
		}
		b.done = true
	}

	return consumed, output, b.done, nil
}

// NewReader exposes signature generation for the specified base as a
// sequential byte source. The logger may be nil.
func NewReader(base io.Reader, blockLength, strongLength uint32, kind HashKind, logger *logging.Logger) (*engine.Driver, error) {
	builder, err := NewBuilder(blockLength, strongLength, kind)
	if err != nil {
		return nil, err
	}
	return engine.NewDriver(builder, base, logger), nil
}

// Generate computes the signature of base in a single call, writing the
// serialized signature to the destination. The logger may be nil.
func Generate(destination io.Writer, base io.Reader, blockLength, strongLength uint32, kind HashKind, logger *logging.Logger) error {
	builder, err := NewBuilder(blockLength, strongLength, kind)
	if err != nil {
		return err
	}
	return engine.Run(builder, base, destination, logger)
}
