// Package rootptr implements the root-pointer coordinator of §4.6: an
// append-only chain of (root, previous-root) pairs, advanced only by a
// compare-and-swap that the caller loses gracefully when racing another
// writer.
package rootptr

import (
	"context"
	"sync"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
)

// Coordinator is the interface the mount engine's caller depends on. A
// concrete SQL-backed implementation is an external-collaborator boundary
// per spec.md §1 — SQLStore below only ever speaks through database/sql,
// never a concrete driver.
type Coordinator interface {
	// PullRoot returns the current head, or block.Default() if the chain
	// is empty.
	PullRoot(ctx context.Context) (block.Identifier, error)

	// PushRoot installs root iff previousRoot equals the current head;
	// otherwise fails with Conflict. The caller must re-pull and retry.
	PushRoot(ctx context.Context, root, previousRoot block.Identifier) error
}

// InMemory is a single-process Coordinator backed by a mutex-guarded head
// pointer — used in tests and for a mount running without a shared
// coordinator.
type InMemory struct {
	mu   sync.Mutex
	head block.Identifier
}

// NewInMemory returns a coordinator whose chain starts empty.
func NewInMemory() *InMemory {
	return &InMemory{head: block.Default()}
}

func (c *InMemory) PullRoot(ctx context.Context) (block.Identifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *InMemory) PushRoot(ctx context.Context, root, previousRoot block.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.head.Equal(previousRoot) {
		return merrors.Conflict(c.head.String())
	}
	c.head = root
	return nil
}

var _ Coordinator = (*InMemory)(nil)

// Push implements §4.6's push_root: fetches root's manifest from store and
// checks that previousRoot (the caller's declared previous head) matches
// manifest.Previous — a mismatch means the manifest does not chain
// correctly, and is InvalidLink, distinct from a coordinator CAS Conflict.
// Only once that holds does it attempt the coordinator's compare-and-swap.
func Push(ctx context.Context, coord Coordinator, store blockstore.Store, root, previousRoot block.Identifier) error {
	data, err := store.Get(ctx, root)
	if err != nil {
		return err
	}
	manifest, err := model.DecodeManifest(data)
	if err != nil {
		return err
	}
	if !manifest.Previous.Equal(previousRoot) {
		return merrors.InvalidLink(root.String())
	}

	return coord.PushRoot(ctx, root, previousRoot)
}
