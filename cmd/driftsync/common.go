package main

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/logging"
)

// rootLogger is the logger from which command loggers derive. Output is only
// produced when debugging is enabled via DRIFTSYNC_DEBUG.
var rootLogger = logging.RootLogger

// openInput opens the specified path for sequential reading, treating an
// empty path or "-" as standard input.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open input file")
	}
	return file, nil
}

// createOutput creates the specified path for writing, treating an empty path
// or "-" as standard output.
func createOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create output file")
	}
	return file, nil
}

// nopWriteCloser adds a no-op Close method to a writer.
type nopWriteCloser struct {
	io.Writer
}

// Close implements io.Closer.Close.
func (nopWriteCloser) Close() error {
	return nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	// writer is the underlying writer.
	writer io.Writer
	// written is the number of bytes written so far.
	written uint64
}

// Write implements io.Writer.Write.
func (w *countingWriter) Write(data []byte) (int, error) {
	n, err := w.writer.Write(data)
	w.written += uint64(n)
	return n, err
}
