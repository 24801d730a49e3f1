// Package result defines the error taxonomy shared by the streaming engines.
// The numeric code space mirrors the one used by rdiff-compatible native
// engines, so that codes observed at external boundaries can be converted
// losslessly into domain errors exactly once, with an explicit fallback for
// codes that aren't modeled.
package result

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Code enumerates the status and error codes of rdiff-compatible engines.
type Code int

const (
	// CodeDone indicates successful completion.
	CodeDone Code = 0
	// CodeBlocked indicates that an engine is blocked waiting for more input
	// or for output space. It is a control signal, not a failure.
	CodeBlocked Code = 1
	// CodeRunning indicates that an engine is processing and not blocked.
	CodeRunning Code = 2
	// CodeIOError indicates an error reading or writing a stream.
	CodeIOError Code = 100
	// CodeSyntaxError indicates malformed input on a decoding path.
	CodeSyntaxError Code = 101
	// CodeMemError indicates that an allocation could not be satisfied.
	CodeMemError Code = 102
	// CodeInputEnded indicates that input ended before an encoded stream was
	// complete.
	CodeInputEnded Code = 103
	// CodeBadMagic indicates an unrecognized format header.
	CodeBadMagic Code = 104
	// CodeUnimplemented indicates a recognized but unsupported format variant.
	CodeUnimplemented Code = 105
	// CodeCorrupt indicates an unbelievable value in an encoded stream.
	CodeCorrupt Code = 106
	// CodeInternalError indicates a violated internal invariant.
	CodeInternalError Code = 107
	// CodeParamError indicates an invalid parameter value.
	CodeParamError Code = 108
)

var (
	// ErrSyntax indicates malformed wire-format data encountered while
	// decoding a signature or delta stream.
	ErrSyntax = errors.New("syntax error in encoded stream")
	// ErrMem indicates that an allocation could not be satisfied. It only
	// arises from foreign code boundaries, never from pure Go paths.
	ErrMem = errors.New("out of memory")
	// ErrBadMagic indicates a format header that doesn't match any known
	// format.
	ErrBadMagic = errors.New("bad magic number")
	// ErrUnimplemented indicates a format variant that is recognized but not
	// supported.
	ErrUnimplemented = errors.New("unimplemented format variant")
	// ErrInternal indicates a violated internal invariant. It should be
	// unreachable.
	ErrInternal = errors.New("internal invariant violation")
	// ErrParam indicates an invalid configuration parameter.
	ErrParam = errors.New("invalid parameter")
)

// UnknownCodeError is returned by FromCode for codes outside the modeled
// space. It retains the original code rather than coercing it to a generic
// error.
type UnknownCodeError struct {
	// Code is the unrecognized code.
	Code Code
}

// Error implements error.Error.
func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown engine code %d", int(e.Code))
}

// FromCode converts a numeric engine code into a domain error. CodeDone maps
// to nil. Unrecognized codes map to an UnknownCodeError carrying the original
// value.
func FromCode(code Code) error {
	switch code {
	case CodeDone:
		return nil
	case CodeBlocked:
		return errors.New("blocked waiting for more data")
	case CodeRunning:
		return errors.New("engine still running")
	case CodeIOError:
		return errors.New("unknown I/O error from engine")
	case CodeSyntaxError:
		return ErrSyntax
	case CodeMemError:
		return ErrMem
	case CodeInputEnded:
		return io.ErrUnexpectedEOF
	case CodeBadMagic:
		return ErrBadMagic
	case CodeUnimplemented:
		return ErrUnimplemented
	case CodeCorrupt:
		return ErrSyntax
	case CodeInternalError:
		return ErrInternal
	case CodeParamError:
		return ErrParam
	default:
		return &UnknownCodeError{Code: code}
	}
}
