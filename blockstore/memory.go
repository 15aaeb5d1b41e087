package blockstore

import (
	"context"

	goblocks "github.com/ipfs/go-block-format"
	blockservice "github.com/ipfs/go-blockservice"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	ipfsblockstore "github.com/ipfs/go-ipfs-blockstore"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
)

// Store is the interface the mount engine depends on, satisfied by both the
// HTTP Client and Memory (used in tests and for an offline mount). Keeping
// this as an interface — rather than depending on *Client directly — lets
// the mount package's tests run without a network.
type Store interface {
	Hash(ctx context.Context, data []byte) (block.Identifier, error)
	Add(ctx context.Context, data []byte) (block.Identifier, error)
	Get(ctx context.Context, id block.Identifier) ([]byte, error)
	PutBlock(ctx context.Context, b block.Block) error
	Pinned(ctx context.Context, id block.Identifier) (bool, error)
}

var _ Store = (*Client)(nil)
var _ Store = (*Memory)(nil)

// Memory is a local, offline block store backed by go-blockservice over an
// in-memory go-ipfs-blockstore — the same pairing the teacher's ipfs storage
// driver (registry/storage/driver/estuary) wires up with a nil exchange,
// minus the libp2p peer-fetch layer this single-backend spec has no use
// for. It satisfies Store directly, for tests and for `mount init` without
// a configured remote.
type Memory struct {
	bstore ipfsblockstore.Blockstore
	bserv  blockservice.BlockService
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	ds := dssync.MutexWrap(datastore.NewMapDatastore())
	bstore := ipfsblockstore.NewBlockstore(ds)
	return &Memory{bstore: bstore, bserv: blockservice.New(bstore, nil)}
}

func (m *Memory) Hash(ctx context.Context, data []byte) (block.Identifier, error) {
	b, err := block.EncodeRaw(data)
	if err != nil {
		return block.Identifier{}, err
	}
	return b.Identifier(), nil
}

func (m *Memory) Add(ctx context.Context, data []byte) (block.Identifier, error) {
	b, err := block.EncodeRaw(data)
	if err != nil {
		return block.Identifier{}, err
	}
	gb, err := goblocks.NewBlockWithCid(data, b.Identifier().CID())
	if err != nil {
		return block.Identifier{}, merrors.EncodeError(err)
	}
	if err := m.bserv.AddBlock(ctx, gb); err != nil {
		return block.Identifier{}, merrors.Transport(err)
	}
	return b.Identifier(), nil
}

func (m *Memory) Get(ctx context.Context, id block.Identifier) ([]byte, error) {
	bl, err := m.bserv.GetBlock(ctx, id.CID())
	if err != nil {
		if err == ipfsblockstore.ErrNotFound || err == blockservice.ErrNotFound {
			return nil, merrors.NotFound(id.String())
		}
		return nil, merrors.Transport(err)
	}
	return bl.RawData(), nil
}

func (m *Memory) PutBlock(ctx context.Context, b block.Block) error {
	gb, err := goblocks.NewBlockWithCid(b.RawData(), b.Identifier().CID())
	if err != nil {
		return merrors.EncodeError(err)
	}
	if err := m.bserv.AddBlock(ctx, gb); err != nil {
		return merrors.Transport(err)
	}
	return nil
}

func (m *Memory) Pinned(ctx context.Context, id block.Identifier) (bool, error) {
	ok, err := m.bstore.Has(ctx, id.CID())
	if err != nil {
		return false, merrors.Transport(err)
	}
	return ok, nil
}
