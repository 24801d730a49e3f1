package rollsum

import (
	"math/rand"
	"testing"
)

// TestKnownValues verifies the checksum against values generated by rdiff.
func TestKnownValues(t *testing.T) {
	cases := []struct {
		data     string
		expected uint32
	}{
		{"this is a ", 0x1b21048b},
		{"string to ", 0x1d1b04f0},
		{"be tested", 0x15f40487},
	}
	for _, c := range cases {
		if value := Sum([]byte(c.data)); value != c.expected {
			t.Errorf("checksum of %q was %08x, expected %08x", c.data, value, c.expected)
		}
	}
}

// TestEmptyWindow verifies that the zero value represents an empty window.
func TestEmptyWindow(t *testing.T) {
	var r Rollsum
	if r.Count() != 0 {
		t.Error("empty window has non-0 count")
	}
	if r.Digest() != Sum(nil) {
		t.Error("zero value digest does not match empty sum")
	}
}

// TestRotateMatchesFresh verifies that sliding a window one byte at a time
// produces the same values as recomputing the checksum over each shifted
// window from scratch. This is the property the delta matcher depends on.
func TestRotateMatchesFresh(t *testing.T) {
	// Generate deterministic random data.
	random := rand.New(rand.NewSource(127))
	data := make([]byte, 4096)
	random.Read(data)

	// Slide a window across the data and compare against fresh checksums.
	const window = 64
	var r Rollsum
	r.Update(data[:window])
	for i := 0; i+window < len(data); i++ {
		if fresh := Sum(data[i : i+window]); r.Digest() != fresh {
			t.Fatalf("rolled checksum %08x at offset %d, expected %08x", r.Digest(), i, fresh)
		}
		r.Rotate(data[i], data[i+window])
	}
}

// TestInOutMatchesFresh verifies that shrinking a window from the front
// produces the same values as fresh checksums over the suffix. The delta
// matcher relies on this when draining the window at end of input.
func TestInOutMatchesFresh(t *testing.T) {
	random := rand.New(rand.NewSource(311))
	data := make([]byte, 256)
	random.Read(data)

	var r Rollsum
	r.Update(data)
	for i := 0; i < len(data); i++ {
		if fresh := Sum(data[i:]); r.Digest() != fresh {
			t.Fatalf("shrunk checksum %08x at offset %d, expected %08x", r.Digest(), i, fresh)
		}
		r.Out(data[i])
	}
	if r.Count() != 0 {
		t.Error("window non-empty after removing all bytes")
	}
}
