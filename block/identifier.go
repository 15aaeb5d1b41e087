// Package block implements the canonical binary block codec: encoding typed
// values to deterministic bytes and deriving a content identifier from them.
// An Identifier is a (codec-tag, hash) pair, mirroring a CID: we lean on
// go-cid/go-multihash/go-multibase directly rather than reinventing the
// wire form, the way the teacher's ipfs storage driver addresses blocks.
package block

import (
	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-cidutil"
	mc "github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
)

// Codec tags relevant to this format: structured (manifests and nodes,
// dag-cbor encoded) and raw (uninterpreted file payload bytes).
const (
	CodecStructured = uint64(mc.DagCbor)
	CodecRaw        = uint64(mc.Raw)
)

// hashCode and hashLength select the fixed 256-bit cryptographic hash
// mandated by §4.1. SHA2-256 rather than the original's Blake3: it is the
// algorithm spec.md's own text names explicitly, and it's what multihash's
// core table registers without pulling in an extra hash implementation.
const (
	hashCode   = mh.SHA2_256
	hashLength = -1 // default length for the code
)

// Identifier is a content identifier: codec tag plus hash over a block's
// encoded bytes. The zero value wraps cid.Undef, so it equals Default()
// ("none") and IsDefault reports true for it.
type Identifier struct {
	cid cid.Cid
}

// Default returns the distinguished identifier denoting "none / genesis".
func Default() Identifier {
	return Identifier{cid: cid.Undef}
}

// IsDefault reports whether id is the "none / genesis" identifier.
func (id Identifier) IsDefault() bool {
	return !id.cid.Defined()
}

// Equal reports byte-equality of two identifiers, per §3's equality rule.
func (id Identifier) Equal(other Identifier) bool {
	return id.cid.Equals(other.cid)
}

// Codec returns the identifier's codec tag (CodecStructured or CodecRaw for
// identifiers produced by this package; other values are possible for
// identifiers decoded from a foreign producer).
func (id Identifier) Codec() uint64 {
	return id.cid.Type()
}

// IsRaw reports whether the identifier carries the raw codec.
func (id Identifier) IsRaw() bool {
	return id.Codec() == CodecRaw
}

// IsStructured reports whether the identifier carries the structured codec.
func (id Identifier) IsStructured() bool {
	return id.Codec() == CodecStructured
}

// String returns the canonical self-describing text form: base32,
// multibase-prefixed, carrying version, codec tag, and multihash (§6.1).
func (id Identifier) String() string {
	if id.IsDefault() {
		return ""
	}
	s, err := id.cid.StringOfBase(multibase.Base32)
	if err != nil {
		// cid.Cid.StringOfBase only fails for an unknown base constant;
		// Base32 is always valid, so this is unreachable in practice.
		return id.cid.String()
	}
	return s
}

// ParseIdentifier decodes an identifier from its text form.
func ParseIdentifier(s string) (Identifier, error) {
	if s == "" {
		return Default(), nil
	}
	c, err := cid.Decode(s)
	if err != nil {
		return Identifier{}, DecodeError(err)
	}
	return Identifier{cid: c}, nil
}

// CID exposes the underlying cid.Cid for interop with the go-ipfs-blockstore
// and go-blockservice-shaped client code.
func (id Identifier) CID() cid.Cid {
	return id.cid
}

// Describe renders id's codec, hash function and version as a compact
// diagnostic string (e.g. "cidv1-dag-cbor-sha2-256-32"), for `stat -v` and
// troubleshooting logs rather than the wire form itself.
func (id Identifier) Describe() string {
	if id.IsDefault() {
		return "undef"
	}
	s, err := cidutil.Format("%P", multibase.Base32, id.cid)
	if err != nil {
		return id.String()
	}
	return s
}

// FromCID wraps an existing cid.Cid as an Identifier.
func FromCID(c cid.Cid) Identifier {
	return Identifier{cid: c}
}

// identifierFor hashes data under the given codec tag and returns the
// resulting Identifier.
func identifierFor(codec uint64, data []byte) (Identifier, error) {
	sum, err := mh.Sum(data, hashCode, hashLength)
	if err != nil {
		return Identifier{}, EncodeError(err)
	}
	return Identifier{cid: cid.NewCidV1(codec, sum)}, nil
}

// MarshalText and UnmarshalText let Identifier participate directly in YAML
// and JSON encodings (configuration files, the HTTP surface's {cid: string}
// bodies) without a bespoke adapter type at every call site.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentifier(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
