// Package delta implements delta computation: matching new data against a
// base signature and emitting a compact stream of copy and literal
// instructions that transforms the base into the new data.
package delta

import (
	"bytes"
	"io"

	"github.com/driftsync-io/driftsync/pkg/engine"
	"github.com/driftsync-io/driftsync/pkg/logging"
	"github.com/driftsync-io/driftsync/pkg/rollsum"
	"github.com/driftsync-io/driftsync/pkg/signature"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

// maxLiteralLength is the maximum length of a single literal instruction.
// Longer literal runs are chunked so that the amount of buffered data stays
// bounded regardless of input size.
const maxLiteralLength = 64 * 1024

// Encoder is a streaming engine that slides a block-length window over new
// data, matches it against a signature index, and emits a serialized delta.
type Encoder struct {
	// index is the signature lookup index.
	index *signature.Index
	// blockLength is the signature's block length.
	blockLength int
	// strongLength is the signature's truncated strong hash length.
	strongLength uint32
	// kind is the signature's strong hash family.
	kind signature.HashKind
	// headerEmitted indicates whether the stream header has been written.
	headerEmitted bool
	// buffer holds pending literal bytes followed by the current window. The
	// window occupies the final windowLength bytes.
	buffer []byte
	// windowLength is the length of the current window.
	windowLength int
	// sum is the rolling checksum of the current window.
	sum rollsum.Rollsum
	// copyOffset and copyLength describe a pending copy instruction awaiting
	// possible extension by an adjacent match.
	copyOffset uint64
	copyLength uint64
	// copyPending indicates whether a copy instruction is pending.
	copyPending bool
	// done indicates that input has been exhausted and the delta finalized.
	done bool
}

// NewEncoder creates a delta encoder for the specified signature, building a
// fresh lookup index over it.
func NewEncoder(sig *signature.Signature) (*Encoder, error) {
	index, err := signature.NewIndex(sig)
	if err != nil {
		return nil, err
	}
	return NewEncoderWithIndex(index), nil
}

// NewEncoderWithIndex creates a delta encoder that reuses a previously built
// index. The index may be shared by concurrent encoders since it is read-only.
func NewEncoderWithIndex(index *signature.Index) *Encoder {
	sig := index.Signature()
	return &Encoder{
		index:        index,
		blockLength:  int(sig.BlockLength),
		strongLength: sig.StrongLength,
		kind:         sig.Kind,
		buffer:       make([]byte, 0, int(sig.BlockLength)+maxLiteralLength),
	}
}

// flushCopy emits any pending copy instruction.
func (e *Encoder) flushCopy(output []byte) []byte {
	if !e.copyPending {
		return output
	}
	output = wire.AppendCopyCommand(output, e.copyOffset, e.copyLength)
	e.copyPending = false
	return output
}

// appendCopy registers a copy instruction, coalescing it with a pending copy
// when it extends the same base span.
func (e *Encoder) appendCopy(output []byte, offset, length uint64) []byte {
	if e.copyPending && e.copyOffset+e.copyLength == offset {
		e.copyLength += length
		return output
	}
	output = e.flushCopy(output)
	e.copyOffset = offset
	e.copyLength = length
	e.copyPending = true
	return output
}

// flushLiteral emits the first length bytes of the buffer as literal
// instructions and compacts the buffer. A pending copy is flushed first since
// it precedes the literal bytes in stream order.
func (e *Encoder) flushLiteral(output []byte, length int) []byte {
	if length == 0 {
		return output
	}
	output = e.flushCopy(output)
	literal := e.buffer[:length]
	for len(literal) > 0 {
		chunk := len(literal)
		if chunk > maxLiteralLength {
			chunk = maxLiteralLength
		}
		output = wire.AppendLiteralCommand(output, uint64(chunk))
		output = append(output, literal[:chunk]...)
		literal = literal[chunk:]
	}
	remaining := copy(e.buffer, e.buffer[length:])
	e.buffer = e.buffer[:remaining]
	return output
}

// tryMatch attempts to match the current window against the index. On a
// verified match it flushes preceding literal bytes, registers the copy, and
// resets the window. The first candidate (in signature order) whose strong
// hash verifies wins, which keeps encoding deterministic.
func (e *Encoder) tryMatch(output []byte) ([]byte, bool) {
	candidates := e.index.Candidates(e.sum.Digest())
	if len(candidates) == 0 {
		return output, false
	}
	window := e.buffer[len(e.buffer)-e.windowLength:]
	strong := e.kind.Sum(window, e.strongLength)
	for _, candidate := range candidates {
		if bytes.Equal(candidate.Strong, strong) {
			output = e.flushLiteral(output, len(e.buffer)-e.windowLength)
			output = e.appendCopy(output, candidate.Offset, uint64(e.windowLength))
			e.buffer = e.buffer[:0]
			e.windowLength = 0
			e.sum.Reset()
			return output, true
		}
	}
	return output, false
}

// drain completes the delta after input is exhausted. Windows shorter than a
// full block are still eligible to match, so the short final base block can be
// copied rather than re-sent as a literal.
func (e *Encoder) drain(output []byte) []byte {
	for e.windowLength > 0 {
		var matched bool
		if output, matched = e.tryMatch(output); matched {
			continue
		}
		e.sum.Out(e.buffer[len(e.buffer)-e.windowLength])
		e.windowLength--
	}
	output = e.flushLiteral(output, len(e.buffer))
	output = e.flushCopy(output)
	return wire.AppendEnd(output)
}

// Step implements engine.Engine.Step.
func (e *Encoder) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	if e.done {
		return 0, output, true, nil
	}

	// Emit the stream header before any instructions.
	if !e.headerEmitted {
		output = wire.AppendDeltaHeader(output)
		e.headerEmitted = true
	}

	// Feed input through the sliding window.
	consumed := 0
	for consumed < len(input) {
		b := input[consumed]
		consumed++
		if e.windowLength == e.blockLength {
			// The window is full and didn't match at its current position, so
			// slide it forward: the oldest window byte joins the pending
			// literal run.
			e.sum.Rotate(e.buffer[len(e.buffer)-e.windowLength], b)
			e.buffer = append(e.buffer, b)
		} else {
			e.sum.In(b)
			e.buffer = append(e.buffer, b)
			e.windowLength++
		}
		if e.windowLength == e.blockLength {
			output, _ = e.tryMatch(output)
		}
		if len(e.buffer)-e.windowLength >= maxLiteralLength {
			output = e.flushLiteral(output, len(e.buffer)-e.windowLength)
		}
	}

	// Once input has ended, drain the window and finalize.
	if inputEnded {
		output = e.drain(output)
		e.done = true
	}

	return consumed, output, e.done, nil
}

// NewReader exposes delta computation for the specified new data as a
// sequential byte source. The logger may be nil.
func NewReader(target io.Reader, sig *signature.Signature, logger *logging.Logger) (*engine.Driver, error) {
	encoder, err := NewEncoder(sig)
	if err != nil {
		return nil, err
	}
	return engine.NewDriver(encoder, target, logger), nil
}

// Generate computes the delta between the signature's base and the new data
// in a single call, writing the serialized delta to the destination. The
// logger may be nil.
func Generate(destination io.Writer, target io.Reader, sig *signature.Signature, logger *logging.Logger) error {
	encoder, err := NewEncoder(sig)
	if err != nil {
		return err
	}
	return engine.Run(encoder, target, destination, logger)
}
