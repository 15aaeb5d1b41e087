package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mountfs/mount/block"
)

// Reserved node keys: disallowed as user link names, used by the on-disk
// encoding for the attached-object map and the schema (§3, §4.3, §6.1).
// These must use exactly these names for wire compatibility.
const (
	AttachedKey = ".attached"
	SchemaKey   = ".schema"
)

// IsReservedName reports whether name collides with a reserved node key or
// otherwise cannot be used as a user link name (non-empty, not starting
// with "." per §3).
func IsReservedName(name string) bool {
	return name == "" || strings.HasPrefix(name, ".")
}

// Node is a directory-like block: an ordered mapping from link name to
// node-link, plus an optional schema for direct child data-links.
type Node struct {
	links  map[string]NodeLink
	Schema *Schema
}

// NewNode returns an empty node with no links and no schema.
func NewNode() *Node {
	return &Node{links: map[string]NodeLink{}}
}

// Len reports the number of links on the node.
func (n *Node) Len() int { return len(n.links) }

// Get returns the link at name, if any.
func (n *Node) Get(name string) (NodeLink, bool) {
	l, ok := n.links[name]
	return l, ok
}

// Set installs or overwrites the link at name.
func (n *Node) Set(name string, link NodeLink) {
	if n.links == nil {
		n.links = map[string]NodeLink{}
	}
	n.links[name] = link
}

// Delete removes the link at name, reporting whether one existed.
func (n *Node) Delete(name string) bool {
	if _, ok := n.links[name]; !ok {
		return false
	}
	delete(n.links, name)
	return true
}

// Names returns the node's link names in lexicographic order, matching the
// ordering `ls` must return (§4.4).
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.links))
	for name := range n.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the node suitable for mutation without
// disturbing a value still referenced elsewhere in the cache.
func (n *Node) Clone() *Node {
	links := make(map[string]NodeLink, len(n.links))
	for k, v := range n.links {
		links[k] = v
	}
	var schema *Schema
	if n.Schema != nil {
		s := *n.Schema
		schema = &s
	}
	return &Node{links: links, Schema: schema}
}

// Encode canonically encodes the node per §4.3: one entry per user link
// keyed by name, a reserved ".attached" submap of name→object for every
// data-link carrying an object, and an optional reserved ".schema" entry.
func (n *Node) Encode() (block.Block, error) {
	wire := make(map[string]interface{}, len(n.links)+2)
	attached := map[string]interface{}{}

	for name, link := range n.links {
		if IsReservedName(name) {
			return block.Block{}, block.EncodeError(fmt.Errorf("node link name %q is reserved", name))
		}
		switch l := link.(type) {
		case DataLink:
			wire[name] = l.Identifier.CID()
			if l.Object != nil {
				obj, err := l.Object.Encode()
				if err != nil {
					return block.Block{}, err
				}
				attached[name] = obj
			}
		case SubNodeLink:
			wire[name] = l.Identifier.CID()
		default:
			return block.Block{}, block.EncodeError(fmt.Errorf("node link %q has unknown variant %T", name, link))
		}
	}

	if len(attached) > 0 {
		wire[AttachedKey] = attached
	}
	if n.Schema != nil {
		s, err := n.Schema.Encode()
		if err != nil {
			return block.Block{}, err
		}
		wire[SchemaKey] = s
	}

	return block.EncodeStructured(wire)
}

// DecodeNode decodes a node from its canonical structured bytes. Per §4.3:
// scan every entry except the two reserved ones; for each link target,
// consult the attached submap — if present, emit Data(id, Some(object));
// else inspect the target's codec — raw emits Data(id, None), otherwise
// Node(id).
func DecodeNode(data []byte) (*Node, error) {
	var wire map[string]interface{}
	if err := block.DecodeStructured(data, &wire); err != nil {
		return nil, err
	}

	n := NewNode()

	attached := map[string]interface{}{}
	if raw, ok := wire[AttachedKey]; ok {
		m, err := asStringMap(raw)
		if err != nil {
			return nil, block.DecodeError(err)
		}
		attached = m
	}

	if raw, ok := wire[SchemaKey]; ok {
		m, err := asStringMap(raw)
		if err != nil {
			return nil, block.DecodeError(err)
		}
		s, err := DecodeSchema(m)
		if err != nil {
			return nil, err
		}
		n.Schema = &s
	}

	for name, raw := range wire {
		if name == AttachedKey || name == SchemaKey {
			continue
		}
		id, err := identifierFromWireLink(raw)
		if err != nil {
			return nil, block.DecodeError(fmt.Errorf("link %q: %w", name, err))
		}

		if objRaw, ok := attached[name]; ok {
			objMap, err := asStringMap(objRaw)
			if err != nil {
				return nil, block.DecodeError(err)
			}
			obj, err := DecodeObject(objMap)
			if err != nil {
				return nil, err
			}
			n.Set(name, DataLink{Identifier: id, Object: &obj})
			continue
		}

		if id.IsRaw() {
			n.Set(name, DataLink{Identifier: id})
		} else {
			n.Set(name, SubNodeLink{Identifier: id})
		}
	}

	return n, nil
}

func identifierFromWireLink(raw interface{}) (block.Identifier, error) {
	v, err := valueFromInterface(raw)
	if err != nil {
		return block.Identifier{}, err
	}
	if v.Kind != ValueLink {
		return block.Identifier{}, fmt.Errorf("expected a link, got %s", v.Kind)
	}
	return v.Link, nil
}
