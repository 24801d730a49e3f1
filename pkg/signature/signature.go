// Package signature implements generation, serialization, and indexing of
// base signatures: the per-block weak and strong checksum fingerprints that
// delta computation matches against.
package signature

import (
	"github.com/pkg/errors"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/md4"

	"github.com/driftsync-io/driftsync/pkg/result"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

// HashKind identifies the strong hash family used by a signature.
type HashKind uint8

const (
	// MD4 selects MD4 strong hashes.
	MD4 HashKind = iota
	// BLAKE2 selects BLAKE2b-256 strong hashes.
	BLAKE2
)

// String implements fmt.Stringer.String.
func (k HashKind) String() string {
	switch k {
	case MD4:
		return "md4"
	case BLAKE2:
		return "blake2"
	default:
		return "unknown"
	}
}

// DigestSize returns the native (untruncated) digest size for the hash kind.
func (k HashKind) DigestSize() int {
	switch k {
	case MD4:
		return md4.Size
	case BLAKE2:
		return blake2b.Size256
	default:
		panic("unknown hash kind")
	}
}

// magic returns the signature stream magic for the hash kind.
func (k HashKind) magic() uint32 {
	switch k {
	case MD4:
		return wire.SignatureMD4Magic
	case BLAKE2:
		return wire.SignatureBLAKE2Magic
	default:
		panic("unknown hash kind")
	}
}

// Sum computes the strong hash of the specified data, truncated to the
// specified length. The length must not exceed the native digest size.
func (k HashKind) Sum(data []byte, length uint32) []byte {
	switch k {
	case MD4:
		digest := md4.New()
		digest.Write(data)
		return digest.Sum(nil)[:length]
	case BLAKE2:
		sum := blake2b.Sum256(data)
		return sum[:length]
	default:
		panic("unknown hash kind")
	}
}

// kindForMagic maps a signature stream magic to its hash kind. It fails with
// ErrUnimplemented for recognized but unsupported variants and ErrBadMagic for
// anything else.
func kindForMagic(magic uint32) (HashKind, error) {
	switch magic {
	case wire.SignatureMD4Magic:
		return MD4, nil
	case wire.SignatureBLAKE2Magic:
		return BLAKE2, nil
	case wire.SignatureRollingMD4Magic, wire.SignatureRollingBLAKE2Magic:
		return 0, result.ErrUnimplemented
	default:
		return 0, result.ErrBadMagic
	}
}

// Block represents the checksums of a single base block. Block lengths are
// implicit: every block spans the signature's block length except possibly the
// final one, and the serialized format carries no per-block length, so a
// match's length is always determined by the window that verified it.
type Block struct {
	// Offset is the byte offset of the block within the base.
	Offset uint64
	// Weak is the rolling weak checksum of the block.
	Weak uint32
	// Strong is the truncated strong hash of the block.
	Strong []byte
}

// Signature represents a base signature. It is immutable after construction
// and safe for concurrent read-only use by multiple delta computations.
type Signature struct {
	// BlockLength is the block length the signature was computed with.
	BlockLength uint32
	// StrongLength is the truncated strong hash length in bytes.
	StrongLength uint32
	// Kind is the strong hash family.
	Kind HashKind
	// Blocks are the per-block checksums in base order.
	Blocks []Block
}

// ensureValid verifies that signature invariants are respected.
func (s *Signature) ensureValid() error {
	if err := validateParameters(s.BlockLength, s.StrongLength, s.Kind); err != nil {
		return err
	}
	for i, block := range s.Blocks {
		if block.Offset != uint64(i)*uint64(s.BlockLength) {
			return errors.New("block offsets not sequential")
		} else if uint32(len(block.Strong)) != s.StrongLength {
			return errors.New("block strong hash length mismatch")
		}
	}
	return nil
}

// validateParameters verifies the configuration surface shared by signature
// generation and loading.
func validateParameters(blockLength, strongLength uint32, kind HashKind) error {
	if kind != MD4 && kind != BLAKE2 {
		return errors.Wrap(result.ErrParam, "unknown hash kind")
	}
	if blockLength == 0 {
		return errors.Wrap(result.ErrParam, "block length must be positive")
	}
	if strongLength == 0 {
		return errors.Wrap(result.ErrParam, "strong hash length must be positive")
	}
	if strongLength > uint32(kind.DigestSize()) {
		return errors.Wrap(result.ErrParam, "strong hash length exceeds digest size")
	}
	return nil
}
