package engine

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/result"
)

// echoEngine copies its input to its output, completing when input ends. It
// optionally limits the number of bytes consumed per step to exercise input
// staging.
type echoEngine struct {
	// stepLimit, if positive, caps bytes consumed per step.
	stepLimit int
}

func (e *echoEngine) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	chunk := len(input)
	if e.stepLimit > 0 && chunk > e.stepLimit {
		chunk = e.stepLimit
	}
	output = append(output, input[:chunk]...)
	return chunk, output, inputEnded && chunk == len(input), nil
}

// stallEngine never consumes input, produces output, or completes.
type stallEngine struct{}

func (stallEngine) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	return 0, output, false, nil
}

// failEngine fails on its first step.
type failEngine struct{}

var errStep = errors.New("step failed")

func (failEngine) Step(input []byte, inputEnded bool, output []byte) (int, []byte, bool, error) {
	return 0, output, false, errStep
}

// countingReader counts Read calls against an underlying reader.
type countingReader struct {
	reader io.Reader
	reads  int
}

func (r *countingReader) Read(buffer []byte) (int, error) {
	r.reads++
	return r.reader.Read(buffer)
}

// TestDriverEcho verifies that a driver streams an engine's output intact.
func TestDriverEcho(t *testing.T) {
	data := bytes.Repeat([]byte("sample payload "), 10000)
	driver := NewDriver(&echoEngine{}, bytes.NewReader(data), nil)
	defer driver.Close()
	output, err := io.ReadAll(driver)
	if err != nil {
		t.Fatal("unable to read driver output:", err)
	}
	if !bytes.Equal(output, data) {
		t.Error("driver output does not match input")
	}
}

// TestDriverShortReads verifies driver behavior with a source that returns one
// byte per read and an engine that consumes input in small steps.
func TestDriverShortReads(t *testing.T) {
	data := []byte("data delivered one byte at a time")
	source := iotest.OneByteReader(bytes.NewReader(data))
	driver := NewDriver(&echoEngine{stepLimit: 3}, source, nil)
	defer driver.Close()
	output, err := io.ReadAll(iotest.OneByteReader(driver))
	if err != nil {
		t.Fatal("unable to read driver output:", err)
	}
	if !bytes.Equal(output, data) {
		t.Error("driver output does not match input")
	}
}

// TestDriverReadsOnDemand verifies that the driver only reads from the source
// when the engine is blocked on input.
func TestDriverReadsOnDemand(t *testing.T) {
	data := bytes.Repeat([]byte{0x42}, 4*readBufferSize)
	source := &countingReader{reader: bytes.NewReader(data)}
	driver := NewDriver(&echoEngine{}, source, nil)
	defer driver.Close()

	// Pull a single byte. The driver needs exactly one source read to unblock
	// the engine.
	buffer := make([]byte, 1)
	if _, err := driver.Read(buffer); err != nil {
		t.Fatal("unable to read driver output:", err)
	}
	if source.reads != 1 {
		t.Error("driver performed unexpected source reads:", source.reads)
	}

	// Draining staged output must not trigger further source reads.
	staged := make([]byte, readBufferSize-1)
	if _, err := io.ReadFull(driver, staged); err != nil {
		t.Fatal("unable to read staged output:", err)
	}
	if source.reads != 1 {
		t.Error("draining staged output triggered source reads:", source.reads)
	}
}

// TestDriverStickyError verifies that an engine error is returned by all
// subsequent pulls without re-invoking the engine.
func TestDriverStickyError(t *testing.T) {
	driver := NewDriver(failEngine{}, bytes.NewReader([]byte("data")), nil)
	defer driver.Close()
	buffer := make([]byte, 16)
	_, err := driver.Read(buffer)
	if err != errStep {
		t.Fatal("engine error not surfaced:", err)
	}
	if _, err := driver.Read(buffer); err != errStep {
		t.Error("engine error not sticky:", err)
	}
}

// TestDriverBlockedAfterEnd verifies that an engine still blocked after input
// has ended yields an internal error.
func TestDriverBlockedAfterEnd(t *testing.T) {
	driver := NewDriver(stallEngine{}, bytes.NewReader(nil), nil)
	defer driver.Close()
	_, err := driver.Read(make([]byte, 16))
	if errors.Cause(err) != result.ErrInternal {
		t.Error("blocked engine did not yield internal error:", err)
	}
}

// TestDriverClose verifies close semantics.
func TestDriverClose(t *testing.T) {
	driver := NewDriver(&echoEngine{}, bytes.NewReader([]byte("data")), nil)
	if err := driver.Close(); err != nil {
		t.Fatal("unable to close driver:", err)
	}
	if err := driver.Close(); err != nil {
		t.Error("repeated close failed:", err)
	}
	if _, err := driver.Read(make([]byte, 16)); err != ErrClosed {
		t.Error("read against closed driver did not fail:", err)
	}
}

// TestRun verifies the run helper.
func TestRun(t *testing.T) {
	data := []byte("data to stream")
	output := bytes.NewBuffer(nil)
	if err := Run(&echoEngine{}, bytes.NewReader(data), output, nil); err != nil {
		t.Fatal("unable to run engine:", err)
	}
	if !bytes.Equal(output.Bytes(), data) {
		t.Error("run output does not match input")
	}
}
