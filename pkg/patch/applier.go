// Package patch implements patch application: replaying a delta instruction
// stream against a randomly addressable base to reconstruct new data.
package patch

import (
	"io"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/engine"
	"github.com/driftsync-io/driftsync/pkg/logging"
	"github.com/driftsync-io/driftsync/pkg/result"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

// phase enumerates the applier's parse states.
type phase uint8

const (
	// phaseHeader awaits the delta stream header.
	phaseHeader phase = iota
	// phaseCommand awaits the next command byte.
	phaseCommand
	// phaseParameters awaits the current command's parameter bytes.
	phaseParameters
	// phaseLiteral copies literal bytes from the delta to the output.
	phaseLiteral
	// phaseCopy copies a base span to the output.
	phaseCopy
	// phaseDone indicates that the end-of-stream command was processed.
	phaseDone
)

const (
	// copyChunkSize is the maximum number of base bytes read per chunk while
	// executing a copy instruction, keeping memory bounded for large spans.
	copyChunkSize = 32 * 1024
	// stepOutputTarget is the amount of output after which a step yields, so
	// that large instructions don't accumulate unbounded output.
	stepOutputTarget = 64 * 1024
)

// Applier is a streaming engine that consumes a serialized delta and emits
// reconstructed data, copying matched spans from the base. The base must be
// exclusively owned by the applier for the duration of application since
// seeking is stateful.
type Applier struct {
	// base is the random-access base source.
	base io.ReadSeeker
	// phase is the current parse state.
	phase phase
	// command is the layout of the command currently being executed.
	command wire.CommandSpec
	// remaining is the number of body bytes left in the current instruction.
	remaining uint64
	// copyBuffer stages base reads during copy instructions.
	copyBuffer []byte
}

// NewApplier creates a patch applier that reconstructs data against the
// specified base.
func NewApplier(base io.ReadSeeker) *Applier {
	return &Applier{
		base:       base,
		copyBuffer: make([]byte, copyChunkSize),
	}
}

// Step implements engine.Engine.Step.
func (a *Applier) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	consumed := 0
	for len(output) < stepOutputTarget {
		switch a.phase {
		case phaseHeader:
			if len(input)-consumed < 4 {
				if inputEnded {
					return consumed, output, false, errors.Wrap(result.ErrBadMagic, "truncated delta header")
				}
				return consumed, output, false, nil
			}
			if uint32(wire.Uint(input[consumed:], 4)) != wire.DeltaMagic {
				return consumed, output, false, errors.Wrap(result.ErrBadMagic, "unrecognized delta header")
			}
			consumed += 4
			a.phase = phaseCommand
		case phaseCommand:
			if len(input)-consumed < 1 {
				if inputEnded {
					return consumed, output, false, errors.Wrap(io.ErrUnexpectedEOF, "delta ended without end-of-stream command")
				}
				return consumed, output, false, nil
			}
			command, err := wire.LookupCommand(input[consumed])
			if err != nil {
				return consumed, output, false, errors.Wrapf(err, "unrecognized command byte 0x%02x", input[consumed])
			}
			consumed++
			a.command = command
			switch {
			case command.Kind == wire.CommandEnd:
				a.phase = phaseDone
			case command.ParameterBytes() > 0:
				a.phase = phaseParameters
			default:
				// Immediate literal length carried in the command byte.
				a.remaining = command.Length
				a.phase = phaseLiteral
			}
		case phaseParameters:
			if len(input)-consumed < a.command.ParameterBytes() {
				if inputEnded {
					return consumed, output, false, errors.Wrap(io.ErrUnexpectedEOF, "delta ended mid-command")
				}
				return consumed, output, false, nil
			}
			if a.command.Kind == wire.CommandCopy {
				offset := wire.Uint(input[consumed:], a.command.OffsetWidth)
				consumed += a.command.OffsetWidth
				a.remaining = wire.Uint(input[consumed:], a.command.LengthWidth)
				consumed += a.command.LengthWidth
				if _, err := a.base.Seek(int64(offset), io.SeekStart); err != nil {
					return consumed, output, false, errors.Wrap(err, "unable to seek base")
				}
				a.phase = phaseCopy
			} else {
				a.remaining = wire.Uint(input[consumed:], a.command.LengthWidth)
				consumed += a.command.LengthWidth
				a.phase = phaseLiteral
			}
			if a.remaining == 0 {
				a.phase = phaseCommand
			}
		case phaseLiteral:
			available := uint64(len(input) - consumed)
			if available == 0 {
				if inputEnded {
					return consumed, output, false, errors.Wrap(io.ErrUnexpectedEOF, "delta ended mid-literal")
				}
				return consumed, output, false, nil
			}
			chunk := a.remaining
			if chunk > available {
				chunk = available
			}
			output = append(output, input[consumed:consumed+int(chunk)]...)
			consumed += int(chunk)
			a.remaining -= chunk
			if a.remaining == 0 {
				a.phase = phaseCommand
			}
		case phaseCopy:
			chunk := a.remaining
			if chunk > copyChunkSize {
				chunk = copyChunkSize
			}
			// ReadFull loops over short reads from the base. A base too short
			// to satisfy the span indicates a mismatched base and delta pair.
			if _, err := io.ReadFull(a.base, a.copyBuffer[:chunk]); err != nil {
				return consumed, output, false, errors.Wrap(err, "unable to read base span")
			}
			output = append(output, a.copyBuffer[:chunk]...)
			a.remaining -= chunk
			if a.remaining == 0 {
				a.phase = phaseCommand
			}
		case phaseDone:
			return consumed, output, true, nil
		}
	}
	return consumed, output, a.phase == phaseDone, nil
}

// NewReader exposes patch application as a sequential byte source
// reconstructing new data from the specified base and delta stream. The
// logger may be nil.
func NewReader(base io.ReadSeeker, delta io.Reader, logger *logging.Logger) *engine.Driver {
	return engine.NewDriver(NewApplier(base), delta, logger)
}

// Apply reconstructs new data in a single call, writing it to the
// destination. The logger may be nil.
func Apply(destination io.Writer, base io.ReadSeeker, delta io.Reader, logger *logging.Logger) error {
	return engine.Run(NewApplier(base), delta, destination, logger)
}
