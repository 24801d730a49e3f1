package signature

import (
	"github.com/pkg/errors"
)

// Index is a lookup structure mapping weak checksums to candidate blocks. It
// is built once from a signature and read-only thereafter, so it is safe for
// concurrent use by independent delta computations. Candidate chains preserve
// signature order, which defines match priority: the earliest-registered block
// wins ties.
type Index struct {
	// signature is the underlying signature.
	signature *Signature
	// candidates maps weak checksums to blocks in signature order.
	candidates map[uint32][]Block
}

// NewIndex builds a lookup index over the specified signature. The signature
// must not be mutated while the index is in use.
func NewIndex(signature *Signature) (*Index, error) {
	if err := signature.ensureValid(); err != nil {
		return nil, errors.Wrap(err, "invalid signature")
	}
	candidates := make(map[uint32][]Block, len(signature.Blocks))
	for _, block := range signature.Blocks {
		candidates[block.Weak] = append(candidates[block.Weak], block)
	}
	return &Index{
		signature:  signature,
		candidates: candidates,
	}, nil
}

// Signature returns the signature underlying the index.
func (i *Index) Signature() *Signature {
	return i.signature
}

// Candidates returns the blocks whose weak checksum matches the specified
// value, in signature order. The returned slice must not be modified.
func (i *Index) Candidates(weak uint32) []Block {
	return i.candidates[weak]
}
