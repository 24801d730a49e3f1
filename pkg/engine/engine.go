// Package engine provides the pull-based execution harness shared by the
// signature, delta, and patch engines. An Engine is a synchronous state
// stepper that consumes staged input and appends output; a Driver exposes any
// Engine as an incremental byte source, reading from the underlying input only
// as needed to satisfy each pull.
package engine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/logging"
	"github.com/driftsync-io/driftsync/pkg/result"
)

// Engine is the interface implemented by streaming transformation engines.
type Engine interface {
	// Step drives the engine. The input slice contains available input bytes
	// and inputEnded indicates that no further input will become available.
	// Output determined by the step is appended to the output slice. Step
	// returns the number of input bytes consumed, the extended output slice,
	// whether the engine has completed, and any error. A step that consumes
	// nothing, produces nothing, and doesn't complete signals that the engine
	// is blocked on input.
	Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error)
}

const (
	// readBufferSize is the size of reads performed against the underlying
	// input source.
	readBufferSize = 32 * 1024
	// outputBufferCapacity is the initial capacity of the driver's output
	// staging buffer. Engines may grow it as needed.
	outputBufferCapacity = 32 * 1024
)

// ErrClosed is returned by pulls against a closed driver.
var ErrClosed = errors.New("driver closed")

// Driver exposes an engine as a sequential byte source. It stages unconsumed
// input, retains undelivered output, and fails permanently on the first engine
// error. Drivers are not safe for concurrent use.
type Driver struct {
	// engine is the underlying engine. It is released on Close.
	engine Engine
	// source is the underlying input source. It is released on Close.
	source io.Reader
	// logger is the (possibly nil) logger for step tracing.
	logger *logging.Logger
	// readBuffer stages reads from the source.
	readBuffer []byte
	// input holds staged input bytes not yet consumed by the engine.
	input []byte
	// outputStorage is the backing buffer into which the engine appends
	// output. It is reused across steps once drained.
	outputStorage []byte
	// output holds produced output bytes not yet delivered to the caller.
	output []byte
	// sourceEnded indicates that the source has returned io.EOF.
	sourceEnded bool
	// done indicates that the engine has completed.
	done bool
	// err is the first unrecoverable error, returned by all subsequent pulls.
	err error
	// closed indicates that the driver has been closed.
	closed bool
}

// NewDriver creates a driver for the specified engine and input source. The
// logger may be nil.
func NewDriver(engine Engine, source io.Reader, logger *logging.Logger) *Driver {
	return &Driver{
		engine:        engine,
		source:        source,
		logger:        logger,
		readBuffer:    make([]byte, readBufferSize),
		outputStorage: make([]byte, 0, outputBufferCapacity),
	}
}

// fill performs a single read against the source, staging whatever it returns.
func (d *Driver) fill() error {
	n, err := d.source.Read(d.readBuffer)
	if n > 0 {
		d.input = append(d.input, d.readBuffer[:n]...)
	}
	if err == io.EOF {
		d.sourceEnded = true
		d.logger.Debug("input source ended")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "unable to read input")
	}
	return nil
}

// Read implements io.Reader.Read. Short reads are legal and do not indicate
// end of stream. Once Read returns an error other than io.EOF, all subsequent
// calls return the same error without re-invoking the engine.
func (d *Driver) Read(buffer []byte) (int, error) {
	// Check for terminal states.
	if d.closed {
		return 0, ErrClosed
	} else if d.err != nil {
		return 0, d.err
	}

	// Drive the engine until output is available or the engine completes.
	for len(d.output) == 0 && !d.done {
		consumed, output, done, err := d.engine.Step(d.input, d.sourceEnded, d.outputStorage[:0])
		if err != nil {
			d.err = err
			return 0, d.err
		}
		d.input = d.input[consumed:]
		d.outputStorage = output
		d.output = output
		d.done = done

		// If the engine made no progress, it's blocked on input. If the
		// source hasn't ended, perform one more read and retry, otherwise the
		// engine has violated its contract (it must complete once told that
		// input has ended).
		if len(output) == 0 && !done {
			if consumed == 0 {
				if d.sourceEnded {
					d.err = errors.Wrap(result.ErrInternal, "engine blocked after end of input")
					return 0, d.err
				}
				if err := d.fill(); err != nil {
					d.err = err
					return 0, d.err
				}
			}
			continue
		}
	}

	// Deliver available output, if any.
	if len(d.output) > 0 {
		n := copy(buffer, d.output)
		d.output = d.output[n:]
		return n, nil
	}

	// The engine has completed and all output has been delivered.
	return 0, io.EOF
}

// Close releases the driver's resources. It is idempotent. Partial output
// already delivered is not invalidated, but no further output will be
// produced.
func (d *Driver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.engine = nil
	d.source = nil
	d.input = nil
	d.outputStorage = nil
	d.output = nil
	return nil
}

// Run drives an engine to completion, streaming its output to the specified
// sink. The logger may be nil.
func Run(engine Engine, source io.Reader, sink io.Writer, logger *logging.Logger) error {
	driver := NewDriver(engine, source, logger)
	defer driver.Close()
	if _, err := io.Copy(sink, driver); err != nil {
		return errors.Wrap(err, "unable to drive engine")
	}
	return nil
}
