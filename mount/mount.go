// Package mount implements the mount engine (§2 component 5, §4.4–§4.6):
// the in-memory DAG representation, the recursive rewrite algorithm behind
// add/tag/set_schema/rm, the block cache staging uncommitted mutations, and
// pull/push synchronisation against a block-store backend.
package mount

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/cache"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
)

// Mount is one mount instance: a root identifier, its manifest, a process-
// local block cache, and a client to the remote block store. The manifest
// and cache are guarded by a single mutex (§5) — Go's sync.Mutex enters a
// starvation mode under sustained contention that gives it the fairness
// §5 asks for, without reaching for a third-party fair-mutex package no
// example in this corpus uses.
//
// Lock hold times never span a store call: callers copy out the small
// values they need (an identifier, a cloned manifest) before releasing the
// lock and awaiting I/O, exactly as §5's "never held across suspension
// points" requires.
type Mount struct {
	mu sync.Mutex

	root     block.Identifier
	manifest model.Manifest

	cache *cache.Cache
	store blockstore.Store
}

// Root returns the mount's current root identifier.
func (m *Mount) Root() block.Identifier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

// Manifest returns a copy of the mount's current manifest.
func (m *Mount) Manifest() model.Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifest
}

// Init creates a fresh mount: an empty root node staged in the cache and a
// genesis manifest written to the store, so the mount has a root identifier
// at once. The empty root node reaches the store on the first Push.
func Init(ctx context.Context, store blockstore.Store) (*Mount, error) {
	m := &Mount{cache: cache.New(), store: store}

	emptyRoot := model.NewNode()
	nodeBlock, err := m.putNodeCache(ctx, emptyRoot)
	if err != nil {
		return nil, err
	}

	m.manifest = model.Genesis(nodeBlock)
	if err := m.commitManifest(ctx); err != nil {
		return nil, err
	}
	dcontext.GetLogger(ctx).Infof("mount initialized at %s", m.root)
	return m, nil
}

// Pull fetches the manifest at rootID from the store, then walks the node
// DAG reachable from manifest.Data, inserting every node block into the
// cache. Does not pre-fetch data-link payloads.
func Pull(ctx context.Context, rootID block.Identifier, store blockstore.Store) (*Mount, error) {
	m := &Mount{cache: cache.New(), store: store}

	manifest, err := m.fetchManifest(ctx, rootID)
	if err != nil {
		return nil, err
	}

	if err := m.pullNodes(ctx, manifest.Data); err != nil {
		return nil, err
	}

	m.root = rootID
	m.manifest = manifest
	return m, nil
}

func (m *Mount) fetchManifest(ctx context.Context, id block.Identifier) (model.Manifest, error) {
	data, err := m.store.Get(ctx, id)
	if err != nil {
		return model.Manifest{}, err
	}
	manifest, err := model.DecodeManifest(data)
	if err != nil {
		return model.Manifest{}, err
	}
	return manifest, nil
}

// pullNodes walks the node DAG reachable from id, inserting every node
// block into the cache. Mirrors the original's pull_nodes: visits only
// SubNodeLinks, never descends into data payloads.
func (m *Mount) pullNodes(ctx context.Context, id block.Identifier) error {
	data, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	node, err := model.DecodeNode(data)
	if err != nil {
		return err
	}
	if err := verifyStructuralLinks(data, node); err != nil {
		return err
	}
	if err := m.cache.Put(ctx, block.NewBlock(id, data)); err != nil {
		return err
	}

	for _, name := range node.Names() {
		link, _ := node.Get(name)
		if sub, ok := model.AsSubNodeLink(link); ok {
			if err := m.pullNodes(ctx, sub.Identifier); err != nil {
				return err
			}
		}
	}
	return nil
}

// Update refreshes the mount in-place to newRootID: verifies the new
// manifest's Previous equals the mount's current root, clears the cache,
// pulls the new spine, and swaps state.
func (m *Mount) Update(ctx context.Context, newRootID block.Identifier) error {
	m.mu.Lock()
	currentRoot := m.root
	m.mu.Unlock()

	manifest, err := m.fetchManifest(ctx, newRootID)
	if err != nil {
		return err
	}
	if !manifest.Previous.Equal(currentRoot) {
		return merrors.PreviousMismatch(manifest.Previous.String(), currentRoot.String())
	}

	if err := m.cache.Clear(ctx); err != nil {
		return err
	}
	if err := m.pullNodes(ctx, manifest.Data); err != nil {
		return err
	}

	m.mu.Lock()
	m.root = newRootID
	m.manifest = manifest
	m.mu.Unlock()
	return nil
}

// Push drains the cache: every staged block is persisted with its explicit
// structured codec, asserting the store echoes back the identifier we
// derived locally. Then the current manifest is persisted and becomes the
// new root. Push is idempotent if the cache is empty.
func (m *Mount) Push(ctx context.Context) error {
	entries, err := m.cache.Drain(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := m.store.PutBlock(ctx, block.NewBlock(e.Identifier, e.Data)); err != nil {
			return err
		}
	}
	return m.commitManifest(ctx)
}

func (m *Mount) commitManifest(ctx context.Context) error {
	m.mu.Lock()
	manifest := m.manifest
	m.mu.Unlock()

	b, err := manifest.Encode()
	if err != nil {
		return err
	}
	if err := m.store.PutBlock(ctx, b); err != nil {
		return err
	}

	m.mu.Lock()
	m.root = b.Identifier()
	m.mu.Unlock()
	return nil
}

// getNode fetches a node by identifier, consulting the cache first and
// falling back to the block-store client (§2 component 4's "process-local
// mapping... used to stage uncommitted mutations, lazily falling back").
func (m *Mount) getNode(ctx context.Context, id block.Identifier) (*model.Node, error) {
	if data, ok, err := m.cache.Get(ctx, id); err != nil {
		return nil, err
	} else if ok {
		return model.DecodeNode(data)
	}

	data, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	node, err := model.DecodeNode(data)
	if err != nil {
		return nil, err
	}
	if err := verifyStructuralLinks(data, node); err != nil {
		return nil, err
	}
	return node, nil
}

// verifyStructuralLinks cross-checks a node fetched from the store: every
// link model.DecodeNode produced must resolve to a CID the bytes' own
// generic IPLD encoding also links to. A remote block store is an untrusted
// boundary (§5's "do not assume the store returns what it was given"); this
// catches a decoder/encoder drifting apart, or a tampered block whose
// typed-link view and raw IPLD-link view disagree.
func verifyStructuralLinks(data []byte, node *model.Node) error {
	linked, err := block.StructuredLinks(data)
	if err != nil {
		return err
	}
	want := make(map[cid.Cid]bool, len(linked))
	for _, c := range linked {
		want[c] = true
	}
	for _, name := range node.Names() {
		link, _ := node.Get(name)
		if !want[link.ID().CID()] {
			return merrors.InvalidLink(link.ID().String())
		}
	}
	return nil
}

// putNodeCache canonically encodes node and stages it in the cache,
// returning its identifier.
func (m *Mount) putNodeCache(ctx context.Context, node *model.Node) (block.Identifier, error) {
	b, err := node.Encode()
	if err != nil {
		return block.Identifier{}, err
	}
	if err := m.cache.Put(ctx, b); err != nil {
		return block.Identifier{}, err
	}
	return b.Identifier(), nil
}

// setRootData installs newDataID as the manifest's data link and persists
// the resulting manifest as the new root. previous is left untouched: the
// original's add/rm/tag/set_schema only ever call manifest.set_data, never
// set_previous, so a local mutation never re-chains the revision history.
func (m *Mount) setRootData(ctx context.Context, newDataID block.Identifier) error {
	m.mu.Lock()
	m.manifest.Data = newDataID
	m.mu.Unlock()
	return m.commitManifest(ctx)
}

// SetPrevious rewrites the manifest's previous link to previousID and
// persists it as the new root. Mirrors the original client's
// mount.set_previous(previous_cid) call, made exactly once at push time to
// record the last-published root this revision now chains from — never on
// every local mutation.
func (m *Mount) SetPrevious(ctx context.Context, previousID block.Identifier) error {
	m.mu.Lock()
	m.manifest.Previous = previousID
	m.mu.Unlock()
	return m.commitManifest(ctx)
}
