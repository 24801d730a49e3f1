package signature

import (
	"io"

	"github.com/pkg/errors"

	"github.com/driftsync-io/driftsync/pkg/result"
	"github.com/driftsync-io/driftsync/pkg/wire"
)

// Load parses a serialized signature from the specified reader, consuming it
// to end of stream. It fails with ErrBadMagic for unrecognized headers,
// ErrUnimplemented for recognized but unsupported variants, and ErrSyntax for
// structurally invalid streams.
func Load(reader io.Reader) (*Signature, error) {
	// Read and validate the header.
	var header [12]byte
	if _, err := io.ReadFull(reader, header[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(result.ErrSyntax, "truncated signature header")
		}
		return nil, errors.Wrap(err, "unable to read signature header")
	}
	kind, err := kindForMagic(uint32(wire.Uint(header[:4], 4)))
	if err != nil {
		return nil, err
	}
	blockLength := uint32(wire.Uint(header[4:8], 4))
	strongLength := uint32(wire.Uint(header[8:12], 4))
	if err := validateParameters(blockLength, strongLength, kind); err != nil {
		return nil, errors.Wrap(result.ErrSyntax, "invalid signature parameters")
	}

	// Read block records until end of stream.
	signature := &Signature{
		BlockLength:  blockLength,
		StrongLength: strongLength,
		Kind:         kind,
	}
	record := make([]byte, 4+strongLength)
	var offset uint64
	for {
		if _, err := io.ReadFull(reader, record); err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			return nil, errors.Wrap(result.ErrSyntax, "truncated block record")
		} else if err != nil {
			return nil, errors.Wrap(err, "unable to read block record")
		}
		strong := make([]byte, strongLength)
		copy(strong, record[4:])
		signature.Blocks = append(signature.Blocks, Block{
			Offset: offset,
			Weak:   uint32(wire.Uint(record[:4], 4)),
			Strong: strong,
		})
		offset += uint64(blockLength)
	}

	return signature, nil
}
