package block

import (
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	cbornode "github.com/ipfs/go-ipld-cbor"
	ipld "github.com/ipfs/go-ipld-format"
	mh "github.com/multiformats/go-multihash"

	"github.com/mountfs/mount/merrors"
)

// EncodeError and DecodeError adapt the package's failures to merrors so
// callers can match them with merrors.CodeOf regardless of which layer
// (block, model, mount) raised them.
func EncodeError(cause error) error { return merrors.EncodeError(cause) }
func DecodeError(cause error) error { return merrors.DecodeError(cause) }

// Block pairs an Identifier with its encoded bytes, and satisfies
// go-block-format's Block interface so it interoperates with the rest of the
// IPFS/IPLD stack (go-blockservice, go-ipfs-blockstore) unmodified.
type Block struct {
	id   Identifier
	data []byte
}

var _ blocks.Block = Block{}

// NewBlock wraps pre-encoded bytes under an already-known identifier, e.g.
// bytes just retrieved from the block-store client.
func NewBlock(id Identifier, data []byte) Block {
	return Block{id: id, data: data}
}

func (b Block) Identifier() Identifier { return b.id }
func (b Block) RawData() []byte        { return b.data }
func (b Block) Cid() cid.Cid           { return b.id.cid }
func (b Block) String() string         { return "Block " + b.id.String() }
func (b Block) Loggable() map[string]interface{} {
	return map[string]interface{}{"block": b.id.String()}
}

// EncodeStructured canonically encodes v (a Manifest, Node, Object, or
// Schema's plain-Go-value representation) to dag-cbor bytes and derives its
// Identifier. Canonical map-key ordering and deterministic scalar tags are
// refmt's dag-cbor atlas, not anything this package implements by hand —
// the same library the teacher would reach for to serialize any IPLD node.
func EncodeStructured(v interface{}) (Block, error) {
	data, err := cbornode.DumpObject(v)
	if err != nil {
		return Block{}, EncodeError(err)
	}
	id, err := identifierFor(CodecStructured, data)
	if err != nil {
		return Block{}, err
	}
	return Block{id: id, data: data}, nil
}

// DecodeStructured decodes dag-cbor bytes into target, a pointer to the
// expected Go shape (e.g. *wireNode, *wireManifest).
func DecodeStructured(data []byte, target interface{}) error {
	if err := cbornode.DecodeInto(data, target); err != nil {
		return DecodeError(err)
	}
	return nil
}

// EncodeRaw wraps an uninterpreted file payload under the raw codec; there
// is no structural encoding step, only hashing.
func EncodeRaw(data []byte) (Block, error) {
	id, err := identifierFor(CodecRaw, data)
	if err != nil {
		return Block{}, err
	}
	return Block{id: id, data: data}, nil
}

// HashStructured and HashRaw compute the Identifier a payload would receive
// without constructing a Block, mirroring the block-store client's
// hash-only `add` path.
func HashStructured(v interface{}) (Identifier, error) {
	b, err := EncodeStructured(v)
	if err != nil {
		return Identifier{}, err
	}
	return b.id, nil
}

func HashRaw(data []byte) (Identifier, error) {
	return identifierFor(CodecRaw, data)
}

// StructuredLinks decodes dag-cbor bytes as a generic ipld.Node (rather than
// into one of this package's typed Go shapes) and returns the CIDs its
// encoded map values resolve to. This is a cross-check, not the decode path
// `DecodeStructured` uses: it lets a caller confirm the bytes a manifest or
// node block carries are link-consistent from the generic IPLD side too,
// the same `ipld.Node` view the teacher's `go-unixfs` import chain walks a
// DAG through.
func StructuredLinks(data []byte) ([]cid.Cid, error) {
	var node ipld.Node
	node, err := cbornode.Decode(data, mh.SHA2_256, -1)
	if err != nil {
		return nil, DecodeError(err)
	}
	links := node.Links()
	out := make([]cid.Cid, len(links))
	for i, l := range links {
		out[i] = l.Cid
	}
	return out, nil
}
