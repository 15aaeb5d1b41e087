// Package model defines the mount's typed entities — manifest, node,
// node-link, object, schema — and their canonical structured encodings, per
// the wire contracts the mount engine and block-store client must agree on.
package model

import "github.com/mountfs/mount/block"

// Manifest is the small record written as the root block of a revision.
type Manifest struct {
	Version  string
	Previous block.Identifier
	Data     block.Identifier
}

// Encode canonically encodes the manifest and derives its Identifier. Per
// §4.3, `previous` and `data` are links (CBOR tag-42, via the identifier's
// raw CID), the same wire shape node.go uses for its own sub-links — not
// the identifier's text form. `previous` is genesis's one nullable case: a
// freshly-init'd mount has no prior revision, encoded as an explicit null
// rather than a link to the undefined CID.
func (m Manifest) Encode() (block.Block, error) {
	wire := map[string]interface{}{
		"version": m.Version,
		"data":    m.Data.CID(),
	}
	if m.Previous.IsDefault() {
		wire["previous"] = nil
	} else {
		wire["previous"] = m.Previous.CID()
	}
	return block.EncodeStructured(wire)
}

// DecodeManifest decodes a manifest from its canonical structured bytes.
func DecodeManifest(data []byte) (Manifest, error) {
	var wire map[string]interface{}
	if err := block.DecodeStructured(data, &wire); err != nil {
		return Manifest{}, err
	}

	version, _ := wire["version"].(string)

	previous := block.Default()
	if raw, ok := wire["previous"]; ok && raw != nil {
		id, err := identifierFromWireLink(raw)
		if err != nil {
			return Manifest{}, block.DecodeError(err)
		}
		previous = id
	}

	dataID, err := identifierFromWireLink(wire["data"])
	if err != nil {
		return Manifest{}, block.DecodeError(err)
	}

	return Manifest{Version: version, Previous: previous, Data: dataID}, nil
}

// Genesis is the manifest of a freshly init'd mount: no version, no
// previous, and data pointing at the empty root node's identifier.
func Genesis(emptyRootID block.Identifier) Manifest {
	return Manifest{Version: "", Previous: block.Default(), Data: emptyRootID}
}
