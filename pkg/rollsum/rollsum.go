// Package rollsum provides the rolling weak checksum used by rdiff-compatible
// signatures and delta computation. The checksum combines a sum-of-bytes
// component and a sum-of-weighted-bytes component (each truncated to 16 bits)
// into a single 32-bit value, and can be slid across a window in constant time
// per byte.
package rollsum

// charOffset is added to each byte before accumulation. It reduces the chance
// of the checksum being 0 for short runs of zero bytes.
const charOffset = 31

// Rollsum tracks the weak checksum of a byte window. The zero value is a valid
// checksum of an empty window.
type Rollsum struct {
	// count is the number of bytes currently in the window.
	count uint64
	// s1 is the running sum-of-bytes component.
	s1 uint32
	// s2 is the running sum-of-weighted-bytes component.
	s2 uint32
}

// Reset returns the checksum to its initial (empty window) state.
func (r *Rollsum) Reset() {
	r.count = 0
	r.s1 = 0
	r.s2 = 0
}

// Update adds a run of bytes to the end of the window.
func (r *Rollsum) Update(data []byte) {
	for _, b := range data {
		r.In(b)
	}
}

// In adds a single byte to the end of the window.
func (r *Rollsum) In(b byte) {
	r.s1 += uint32(b) + charOffset
	r.s2 += r.s1
	r.count++
}

// Out removes a single byte from the front of the window. The byte must be the
// one that actually entered the window first, otherwise the checksum value is
// meaningless.
func (r *Rollsum) Out(b byte) {
	r.s1 -= uint32(b) + charOffset
	r.s2 -= uint32(r.count) * (uint32(b) + charOffset)
	r.count--
}

// Rotate slides the window one byte forward, removing out from the front and
// adding in to the end. The window length is unchanged. The result is
// identical to a fresh checksum computed over the shifted window.
func (r *Rollsum) Rotate(out, in byte) {
	r.s1 += uint32(in) - uint32(out)
	r.s2 += r.s1 - uint32(r.count)*(uint32(out)+charOffset)
}

// Count returns the number of bytes currently in the window.
func (r *Rollsum) Count() uint64 {
	return r.count
}

// Digest returns the 32-bit checksum value for the current window, with the
// weighted component in the high 16 bits and the byte sum in the low 16 bits.
func (r *Rollsum) Digest() uint32 {
	return (r.s2 << 16) | (r.s1 & 0xffff)
}

// Sum computes the checksum of an entire byte slice in one shot.
func Sum(data []byte) uint32 {
	var r Rollsum
	r.Update(data)
	return r.Digest()
}
