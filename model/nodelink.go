package model

import "github.com/mountfs/mount/block"

// NodeLink is a tagged union with exactly two variants — DataLink and
// SubNodeLink, matching §9's "do not rely on dynamic dispatch; pattern-match
// everywhere": callers switch on a type assertion, never add a third
// implementation, and the unexported method keeps this package the only one
// that can produce new variants.
type NodeLink interface {
	nodeLink()
	ID() block.Identifier
}

// DataLink points at a raw-codec payload block, optionally annotated with
// per-file metadata.
type DataLink struct {
	Identifier block.Identifier
	Object     *Object
}

func (DataLink) nodeLink()              {}
func (d DataLink) ID() block.Identifier { return d.Identifier }

// SubNodeLink points at another structured-codec node block.
type SubNodeLink struct {
	Identifier block.Identifier
}

func (SubNodeLink) nodeLink()              {}
func (s SubNodeLink) ID() block.Identifier { return s.Identifier }

// AsDataLink and AsSubNodeLink are the pattern-match helpers §9 asks for, in
// place of a type switch at every call site.
func AsDataLink(l NodeLink) (DataLink, bool) {
	d, ok := l.(DataLink)
	return d, ok
}

func AsSubNodeLink(l NodeLink) (SubNodeLink, bool) {
	n, ok := l.(SubNodeLink)
	return n, ok
}
