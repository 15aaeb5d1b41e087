// Package cache implements the mount's process-local block cache: a
// staging map from identifier to decoded-then-re-encodable bytes, used to
// buffer mutations between operations and drained on push. It wraps
// go-datastore the way the teacher's storage drivers wrap a backing KV
// store, rather than hand-rolling a map with a mutex.
package cache

import (
	"context"
	"sync"

	"github.com/ipfs/go-datastore"
	dsq "github.com/ipfs/go-datastore/query"
	dssync "github.com/ipfs/go-datastore/sync"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
)

// Cache is the process-local staging map identifier→encoded bytes for
// unpushed or recently-fetched structured blocks. Payload (raw-codec) bytes
// are never cached, per §4.4's `cat` contract.
//
// The manifest and the cache share one fair mutex per mount (§5); this type
// only guards its own datastore handle, the outer mutex lives in the mount
// package around the sequence of cache + manifest operations that make up
// one logical mutation.
type Cache struct {
	mu sync.Mutex
	ds datastore.Datastore
}

// New returns an empty, in-memory-backed Cache. dssync.MutexWrap gives us
// the same thread-safety the teacher's in-memory datastore-backed drivers
// rely on.
func New() *Cache {
	return &Cache{ds: dssync.MutexWrap(datastore.NewMapDatastore())}
}

func key(id block.Identifier) datastore.Key {
	return datastore.NewKey("/blocks/" + id.String())
}

// Put stages b under its own identifier, overwriting any prior entry.
func (c *Cache) Put(ctx context.Context, b block.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ds.Put(ctx, key(b.Identifier()), b.RawData()); err != nil {
		return merrors.Transport(err)
	}
	return nil
}

// Get retrieves the staged bytes for id, reporting ok=false on a miss
// (callers fall back to the block-store client).
func (c *Cache) Get(ctx context.Context, id block.Identifier) (data []byte, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, dsErr := c.ds.Get(ctx, key(id))
	if dsErr != nil {
		if dsErr == datastore.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, merrors.Transport(dsErr)
	}
	return v, true, nil
}

// Delete evicts a staged entry, e.g. after push has persisted it remotely.
func (c *Cache) Delete(ctx context.Context, id block.Identifier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ds.Delete(ctx, key(id)); err != nil && err != datastore.ErrNotFound {
		return merrors.Transport(err)
	}
	return nil
}

// Entry is one staged (identifier, bytes) pair, as returned by Drain.
type Entry struct {
	Identifier block.Identifier
	Data       []byte
}

// Drain returns every staged entry without removing it; push uses this to
// flush the cache to the block-store client, and the flushed entries stay
// cached afterwards.
func (c *Cache) Drain(ctx context.Context) ([]Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	results, err := c.ds.Query(ctx, dsq.Query{Prefix: "/blocks"})
	if err != nil {
		return nil, merrors.Transport(err)
	}
	defer results.Close()

	var entries []Entry
	for r := range results.Next() {
		if r.Error != nil {
			return nil, merrors.Transport(r.Error)
		}
		idStr := r.Key[len("/blocks/"):]
		id, err := block.ParseIdentifier(idStr)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Identifier: id, Data: r.Value})
	}
	return entries, nil
}

// Clear empties the cache entirely; update uses it before pulling the new
// root's spine into the same cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	results, err := c.ds.Query(ctx, dsq.Query{Prefix: "/blocks", KeysOnly: true})
	if err != nil {
		return merrors.Transport(err)
	}
	defer results.Close()

	for r := range results.Next() {
		if r.Error != nil {
			return merrors.Transport(r.Error)
		}
		if err := c.ds.Delete(ctx, datastore.NewKey(r.Key)); err != nil {
			return merrors.Transport(err)
		}
	}
	return nil
}
