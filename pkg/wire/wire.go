// Package wire implements the binary formats shared with rdiff: the signature
// and delta stream headers and the command-tagged instruction encoding used by
// delta bodies. All multi-byte integers are big-endian, with copy and literal
// parameters encoded in the smallest of the 1, 2, 4 or 8 byte widths that can
// represent them.
package wire

import (
	"github.com/driftsync-io/driftsync/pkg/result"
)

const (
	// SignatureMD4Magic identifies a signature stream with MD4 strong hashes.
	SignatureMD4Magic uint32 = 0x72730136
	// SignatureBLAKE2Magic identifies a signature stream with BLAKE2 strong
	// hashes.
	SignatureBLAKE2Magic uint32 = 0x72730137
	// SignatureRollingMD4Magic identifies an MD4 signature variant with a
	// rolling hash family that this implementation does not support.
	SignatureRollingMD4Magic uint32 = 0x72730146
	// SignatureRollingBLAKE2Magic identifies a BLAKE2 signature variant with a
	// rolling hash family that this implementation does not support.
	SignatureRollingBLAKE2Magic uint32 = 0x72730147
	// DeltaMagic identifies a delta stream.
	DeltaMagic uint32 = 0x72730236
)

const (
	// opEnd terminates a delta stream.
	opEnd byte = 0x00
	// opLiteralImmediateMax is the largest command byte whose literal length
	// is carried in the command byte itself (lengths 0x01 through 0x40).
	opLiteralImmediateMax byte = 0x40
	// opLiteralBase is the first of the four literal commands whose length
	// follows as a 1, 2, 4, or 8 byte integer.
	opLiteralBase byte = 0x41
	// opCopyBase is the first of the sixteen copy commands. The offset width
	// index occupies the high two bits of the command offset and the length
	// width index the low two bits.
	opCopyBase byte = 0x45
	// opCopyMax is the last valid copy command.
	opCopyMax byte = 0x54
)

// widths maps a width index (0 through 3) to a parameter width in bytes.
var widths = [4]int{1, 2, 4, 8}

// widthIndex returns the index of the smallest parameter width that can
// represent the specified value.
func widthIndex(value uint64) int {
	if value <= 0xff {
		return 0
	} else if value <= 0xffff {
		return 1
	} else if value <= 0xffffffff {
		return 2
	}
	return 3
}

// AppendUint appends a big-endian integer of the specified width in bytes.
func AppendUint(buffer []byte, value uint64, width int) []byte {
	for shift := 8 * (width - 1); shift >= 0; shift -= 8 {
		buffer = append(buffer, byte(value>>uint(shift)))
	}
	return buffer
}

// Uint decodes a big-endian integer of the specified width in bytes. The data
// slice must contain at least width bytes.
func Uint(data []byte, width int) uint64 {
	var value uint64
	for _, b := range data[:width] {
		value = (value << 8) | uint64(b)
	}
	return value
}

// AppendSignatureHeader appends a signature stream header with the specified
// magic, block length, and strong hash length.
func AppendSignatureHeader(buffer []byte, magic, blockLength, strongLength uint32) []byte {
	buffer = AppendUint(buffer, uint64(magic), 4)
	buffer = AppendUint(buffer, uint64(blockLength), 4)
	return AppendUint(buffer, uint64(strongLength), 4)
}

// AppendDeltaHeader appends a delta stream header.
func AppendDeltaHeader(buffer []byte) []byte {
	return AppendUint(buffer, uint64(DeltaMagic), 4)
}

// AppendLiteralCommand appends a literal command for the specified run length.
// The literal bytes themselves are appended separately by the caller. Lengths
// are always encoded in the explicit-width command forms, matching rdiff's
// encoder, though the immediate forms are still accepted when decoding.
func AppendLiteralCommand(buffer []byte, length uint64) []byte {
	index := widthIndex(length)
	buffer = append(buffer, opLiteralBase+byte(index))
	return AppendUint(buffer, length, widths[index])
}

// AppendCopyCommand appends a copy command for the specified base offset and
// length.
func AppendCopyCommand(buffer []byte, offset, length uint64) []byte {
	offsetIndex := widthIndex(offset)
	lengthIndex := widthIndex(length)
	buffer = append(buffer, opCopyBase+byte(4*offsetIndex+lengthIndex))
	buffer = AppendUint(buffer, offset, widths[offsetIndex])
	return AppendUint(buffer, length, widths[lengthIndex])
}

// AppendEnd appends the end-of-stream command.
func AppendEnd(buffer []byte) []byte {
	return append(buffer, opEnd)
}

// CommandKind identifies the class of a delta command.
type CommandKind uint8

const (
	// CommandEnd marks the end of a delta stream.
	CommandEnd CommandKind = iota
	// CommandLiteral inserts literal bytes into the output.
	CommandLiteral
	// CommandCopy copies a span of the base into the output.
	CommandCopy
)

// CommandSpec describes the parameter layout selected by a delta command byte.
type CommandSpec struct {
	// Kind is the command class.
	Kind CommandKind
	// OffsetWidth is the width in bytes of the copy offset parameter. It is 0
	// for non-copy commands.
	OffsetWidth int
	// LengthWidth is the width in bytes of the length parameter. It is 0 when
	// the length is carried in the command byte itself.
	LengthWidth int
	// Length is the immediate literal length for commands that carry it.
	Length uint64
}

// ParameterBytes returns the total number of parameter bytes that follow the
// command byte.
func (s CommandSpec) ParameterBytes() int {
	return s.OffsetWidth + s.LengthWidth
}

// LookupCommand decodes a delta command byte into its parameter layout. It
// fails with a syntax error for command bytes in the reserved range.
func LookupCommand(command byte) (CommandSpec, error) {
	if command == opEnd {
		return CommandSpec{Kind: CommandEnd}, nil
	} else if command <= opLiteralImmediateMax {
		return CommandSpec{Kind: CommandLiteral, Length: uint64(command)}, nil
	} else if command < opCopyBase {
		return CommandSpec{
			Kind:        CommandLiteral,
			LengthWidth: widths[command-opLiteralBase],
		}, nil
	} else if command <= opCopyMax {
		index := command - opCopyBase
		return CommandSpec{
			Kind:        CommandCopy,
			OffsetWidth: widths[index/4],
			LengthWidth: widths[index%4],
		}, nil
	}
	return CommandSpec{}, result.ErrSyntax
}
