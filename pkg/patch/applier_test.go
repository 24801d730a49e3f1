package patch

import (
	"bytes"
	"encoding/hex"
	"io"
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/delta"
	"github.com/driftsync-io/driftsync/pkg/result"
	"github.com/driftsync-io/driftsync/pkg/signature"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

const (
	testBase   = "this is a string to be tested"
	testTarget = "this is another string to be tested"
)

// testDeltaHex is the delta of testTarget against testBase (block length 10,
// strong hash length 5, MD4), as generated by rdiff.
const testDeltaHex = "727302364110" +
	"7468697320697320616e6f7468657220" +
	"450a1300"

// TestApplyVector verifies reconstruction from the fixed delta vector.
func TestApplyVector(t *testing.T) {
	encoded, err := hex.DecodeString(testDeltaHex)
	if err != nil {
		t.Fatal("unable to decode delta vector:", err)
	}
	output := bytes.NewBuffer(nil)
	if err := Apply(output, bytes.NewReader([]byte(testBase)), bytes.NewReader(encoded), nil); err != nil {
		t.Fatal("unable to apply delta:", err)
	}
	if output.String() != testTarget {
		t.Errorf("reconstructed data was %q, expected %q", output.String(), testTarget)
	}
}

// testDataGenerator generates base and target test pairs for round-trip
// verification.
type testDataGenerator struct {
	// length is the base data length.
	length int
	// seed seeds data generation.
	seed int64
	// mutations is the number of random single-byte mutations applied to the
	// base to derive the target.
	mutations int
	// prepend is data prepended to the base to derive the target.
	prepend []byte
	// truncate is the number of bytes removed from the end of the base to
	// derive the target.
	truncate int
}

func (g testDataGenerator) generate() (base, target []byte) {
	// Generate base data.
	random := rand.New(rand.NewSource(g.seed))
	base = make([]byte, g.length)
	random.Read(base)

	// Derive target data.
	target = make([]byte, len(base))
	copy(target, base)
	for i := 0; i < g.mutations; i++ {
		target[random.Intn(len(target))] ^= 0xff
	}
	if g.truncate > 0 {
		target = target[:len(target)-g.truncate]
	}
	target = append(append([]byte(nil), g.prepend...), target...)

	// Done.
	return base, target
}

// roundTrip computes a signature for base, a delta for target against that
// signature, and applies the delta to base, verifying that the target is
// reconstructed exactly.
func roundTrip(t *testing.T, base, target []byte, blockLength, strongLength uint32, kind signature.HashKind) {
	t.Helper()

	// Compute the base signature.
	signatureBuffer := bytes.NewBuffer(nil)
	if err := signature.Generate(signatureBuffer, bytes.NewReader(base), blockLength, strongLength, kind, nil); err != nil {
		t.Fatal("unable to generate signature:", err)
	}
	sig, err := signature.Load(bytes.NewReader(signatureBuffer.Bytes()))
	if err != nil {
		t.Fatal("unable to load signature:", err)
	}

	// Compute the delta.
	deltaBuffer := bytes.NewBuffer(nil)
	if err := delta.Generate(deltaBuffer, bytes.NewReader(target), sig, nil); err != nil {
		t.Fatal("unable to compute delta:", err)
	}

	// Apply the delta and verify reconstruction.
	output := bytes.NewBuffer(nil)
	if err := Apply(output, bytes.NewReader(base), bytes.NewReader(deltaBuffer.Bytes()), nil); err != nil {
		t.Fatal("unable to apply delta:", err)
	}
	if !bytes.Equal(output.Bytes(), target) {
		t.Error("reconstructed data does not match target")
	}
}

// TestRoundTrip verifies signature/delta/patch round trips across data shapes
// and parameters.
func TestRoundTrip(t *testing.T) {
	generators := []testDataGenerator{
		{},
		{0, 0, 0, []byte("created from nothing"), 0},
		{1024, 101, 0, nil, 1024},
		{1024, 127, 0, nil, 0},
		{1024, 131, 3, nil, 0},
		{65536, 211, 10, []byte("shifted"), 0},
		{65536, 223, 0, nil, 13},
		{1024*1024 + 17, 307, 25, nil, 0},
	}
	parameters := []struct {
		blockLength  uint32
		strongLength uint32
		kind         signature.HashKind
	}{
		{64, 8, signature.BLAKE2},
		{701, 16, signature.BLAKE2},
		{2048, 0, signature.MD4},
	}
	for _, generator := range generators {
		base, target := generator.generate()
		for _, p := range parameters {
			roundTrip(t, base, target, p.blockLength, p.strongLength, p.kind)
		}
	}
}

// TestApplyBadMagic verifies rejection of a delta with an unrecognized header.
func TestApplyBadMagic(t *testing.T) {
	stream := []byte{0x72, 0x73, 0x02, 0x37, 0x00}
	err := Apply(io.Discard, bytes.NewReader(nil), bytes.NewReader(stream), nil)
	if errors.Cause(err) != result.ErrBadMagic {
		t.Error("unrecognized header did not yield magic error:", err)
	}
}

// TestApplyReservedCommand verifies rejection of reserved command bytes.
func TestApplyReservedCommand(t *testing.T) {
	stream := wire.AppendDeltaHeader(nil)
	stream = append(stream, 0x55)
	err := Apply(io.Discard, bytes.NewReader(nil), bytes.NewReader(stream), nil)
	if errors.Cause(err) != result.ErrSyntax {
		t.Error("reserved command did not yield syntax error:", err)
	}
}

// TestApplyTruncated verifies rejection of a delta that ends without the
// end-of-stream command.
func TestApplyTruncated(t *testing.T) {
	stream := wire.AppendDeltaHeader(nil)
	stream = wire.AppendLiteralCommand(stream, 8)
	stream = append(stream, "too s"...)
	err := Apply(io.Discard, bytes.NewReader(nil), bytes.NewReader(stream), nil)
	if errors.Cause(err) != io.ErrUnexpectedEOF {
		t.Error("truncated delta did not yield unexpected EOF:", err)
	}
}

// TestApplyCopyBeyondBase verifies rejection of a copy span extending past the
// end of the base.
func TestApplyCopyBeyondBase(t *testing.T) {
	stream := wire.AppendDeltaHeader(nil)
	stream = wire.AppendCopyCommand(stream, 0, 64)
	stream = wire.AppendEnd(stream)
	err := Apply(io.Discard, bytes.NewReader(make([]byte, 32)), bytes.NewReader(stream), nil)
	if err == nil {
		t.Error("copy beyond base did not yield an error")
	}
}

// TestApplyEmptyDelta verifies that a header-and-end delta reconstructs empty
// data.
func TestApplyEmptyDelta(t *testing.T) {
	stream := wire.AppendEnd(wire.AppendDeltaHeader(nil))
	output := bytes.NewBuffer(nil)
	if err := Apply(output, bytes.NewReader(nil), bytes.NewReader(stream), nil); err != nil {
		t.Fatal("unable to apply delta:", err)
	}
	if output.Len() != 0 {
		t.Error("empty delta produced output")
	}
}
