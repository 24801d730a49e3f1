package wire

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/result"
)

// TestLiteralCommandEncoding verifies that literal commands use the explicit
// length forms with minimal parameter widths.
func TestLiteralCommandEncoding(t *testing.T) {
	cases := []struct {
		length   uint64
		expected []byte
	}{
		{16, []byte{0x41, 0x10}},
		{255, []byte{0x41, 0xff}},
		{256, []byte{0x42, 0x01, 0x00}},
		{1 << 20, []byte{0x43, 0x00, 0x10, 0x00, 0x00}},
	}
	for _, c := range cases {
		if encoded := AppendLiteralCommand(nil, c.length); !bytes.Equal(encoded, c.expected) {
			t.Errorf("literal command for length %d was %x, expected %x", c.length, encoded, c.expected)
		}
	}
}

// TestCopyCommandEncoding verifies that copy commands select the minimal
// parameter widths for both offset and length.
func TestCopyCommandEncoding(t *testing.T) {
	cases := []struct {
		offset   uint64
		length   uint64
		expected []byte
	}{
		{10, 19, []byte{0x45, 0x0a, 0x13}},
		{0x12345, 300, []byte{0x4e, 0x00, 0x01, 0x23, 0x45, 0x01, 0x2c}},
		{0, 1000, []byte{0x46, 0x00, 0x03, 0xe8}},
	}
	for _, c := range cases {
		if encoded := AppendCopyCommand(nil, c.offset, c.length); !bytes.Equal(encoded, c.expected) {
			t.Errorf("copy command for (%d, %d) was %x, expected %x", c.offset, c.length, encoded, c.expected)
		}
	}
}

// TestCommandLookup verifies decoding of representative command bytes.
func TestCommandLookup(t *testing.T) {
	if spec, err := LookupCommand(0x00); err != nil || spec.Kind != CommandEnd {
		t.Error("end command not decoded correctly")
	}
	if spec, err := LookupCommand(0x30); err != nil || spec.Kind != CommandLiteral || spec.Length != 0x30 || spec.ParameterBytes() != 0 {
		t.Error("immediate literal command not decoded correctly")
	}
	if spec, err := LookupCommand(0x43); err != nil || spec.Kind != CommandLiteral || spec.LengthWidth != 4 {
		t.Error("explicit literal command not decoded correctly")
	}
	if spec, err := LookupCommand(0x45); err != nil || spec.Kind != CommandCopy || spec.OffsetWidth != 1 || spec.LengthWidth != 1 {
		t.Error("first copy command not decoded correctly")
	}
	if spec, err := LookupCommand(0x54); err != nil || spec.Kind != CommandCopy || spec.OffsetWidth != 8 || spec.LengthWidth != 8 {
		t.Error("last copy command not decoded correctly")
	}
}

// TestReservedCommands verifies that reserved command bytes are rejected as
// syntax errors.
func TestReservedCommands(t *testing.T) {
	for _, command := range []byte{0x55, 0x80, 0xff} {
		if _, err := LookupCommand(command); errors.Cause(err) != result.ErrSyntax {
			t.Errorf("reserved command byte 0x%02x not rejected", command)
		}
	}
}

// TestIntegerRoundTrip verifies big-endian integer encoding against decoding.
func TestIntegerRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		value := uint64(0xfedcba9876543210) >> uint(64-8*width)
		encoded := AppendUint(nil, value, width)
		if len(encoded) != width {
			t.Fatalf("encoded width %d, expected %d", len(encoded), width)
		}
		if decoded := Uint(encoded, width); decoded != value {
			t.Errorf("decoded %x, expected %x", decoded, value)
		}
	}
}
