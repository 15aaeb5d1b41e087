package mount

import (
	"context"
	"sort"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/ipfs/go-cidutil"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
)

// Add ingests a file at path. If hashOnly, the payload is hashed without
// transferring it to the store; otherwise it is added to the store. Either
// way an identifier to a raw-codec block is obtained and upserted as a data
// link; no object or schema is touched (§4.4 add).
func (m *Mount) Add(ctx context.Context, path string, data []byte, hashOnly bool) error {
	var id block.Identifier
	var err error
	if hashOnly {
		id, err = m.store.Hash(ctx, data)
	} else {
		id, err = m.store.Add(ctx, data)
	}
	if err != nil {
		return err
	}

	return m.mutate(ctx, path, upsertArgs{link: &id})
}

// Rm removes the link at the terminal segment of path, cascading empty-
// subtree pruning up to (and including, with a fresh replacement) the root.
func (m *Mount) Rm(ctx context.Context, path string) error {
	return m.mutate(ctx, path, upsertArgs{})
}

// SetSchema installs a schema on the node at path, creating intermediate
// nodes as needed. Installing a schema where a data-link exists fails with
// SchemaOnData.
func (m *Mount) SetSchema(ctx context.Context, path string, schema model.Schema) error {
	return m.mutate(ctx, path, upsertArgs{schema: &schemaArg{schema: schema, persist: true}})
}

// TagOption customizes a Tag call. The supplemented WithBackdate option
// lets the caller override created_at explicitly when retagging, following
// the original implementation's Object::update(maybe_backdate) feature.
type TagOption func(*tagOptions)

type tagOptions struct {
	backdate *time.Time
}

// WithBackdate overrides the resulting object's created_at, instead of
// either preserving a prior value or defaulting to now.
func WithBackdate(t time.Time) TagOption {
	return func(o *tagOptions) { o.backdate = &t }
}

// Tag attaches or updates an object on the data-link at path. The enclosing
// node must already contain a data-link at the terminal name, otherwise
// fails with PathNotFound. created_at is inherited from any prior object at
// the same name (or overridden via WithBackdate); updated_at is refreshed.
func (m *Mount) Tag(ctx context.Context, path string, properties map[string]model.Value, opts ...TagOption) error {
	var options tagOptions
	for _, opt := range opts {
		opt(&options)
	}

	now := time.Now().UTC()
	prior, err := m.priorObjectAt(ctx, path)
	if err != nil {
		return err
	}

	obj := model.WithUpsert(prior, properties, now)
	if options.backdate != nil {
		obj.CreatedAt = options.backdate.UTC()
	}

	return m.mutate(ctx, path, upsertArgs{object: &obj})
}

func (m *Mount) priorObjectAt(ctx context.Context, path string) (*model.Object, error) {
	link, err := m.resolve(ctx, path)
	if err != nil {
		if merrors.CodeOf(err) == merrors.ErrorCodePathNotFound {
			return nil, nil
		}
		return nil, err
	}
	dataLink, ok := model.AsDataLink(link)
	if !ok {
		return nil, merrors.DataOnPath(path)
	}
	return dataLink.Object, nil
}

// mutate is the shared driver behind Add/Rm/SetSchema/Tag: fetch the root
// node, run the recursive rewrite, and if anything changed install the new
// data identifier as the manifest's root.
func (m *Mount) mutate(ctx context.Context, path string, args upsertArgs) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return merrors.PathNotFound(path)
	}

	m.mu.Lock()
	dataID := m.manifest.Data
	m.mu.Unlock()

	root, err := m.getNode(ctx, dataID)
	if err != nil {
		return err
	}

	result, err := m.upsertNode(ctx, root, segments, args)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	newDataID := result.ID
	if result.Removed {
		freshRoot := model.NewNode()
		id, err := m.putNodeCache(ctx, freshRoot)
		if err != nil {
			return err
		}
		newDataID = id
	}

	return m.setRootData(ctx, newDataID)
}

// Entry is one (path, link) pair returned by Ls.
type Entry struct {
	Path string
	Link model.NodeLink
}

// Ls returns the ordered mapping of names to node-links at the node named
// by path, plus its schema if any. With deep=true, returns the recursive
// flattening as full-path entries in lexicographic order.
func (m *Mount) Ls(ctx context.Context, path string, deep bool) ([]Entry, *model.Schema, error) {
	segments := splitPath(path)

	var nodeID block.Identifier
	if len(segments) == 0 {
		m.mu.Lock()
		nodeID = m.manifest.Data
		m.mu.Unlock()
	} else {
		link, err := m.resolve(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		sub, ok := model.AsSubNodeLink(link)
		if !ok {
			return nil, nil, merrors.DataOnPath(path)
		}
		nodeID = sub.Identifier
	}

	node, err := m.getNode(ctx, nodeID)
	if err != nil {
		return nil, nil, err
	}

	if !deep {
		var entries []Entry
		for _, name := range node.Names() {
			link, _ := node.Get(name)
			entries = append(entries, Entry{Path: name, Link: link})
		}
		return entries, node.Schema, nil
	}

	prefix := path
	if prefix == "/" {
		prefix = ""
	}
	visited := cidutil.NewSet()
	cache := map[cid.Cid][]Entry{}
	entries, err := m.lsDeep(ctx, prefix, node, visited, cache)
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil, nil
}

// lsDeep recursively flattens node into full-path entries. Two distinct
// paths can carry the same sub-node identifier (e.g. a file tree copied
// under a second name), so visited/cache dedupe the descent: the first
// sighting of an identifier walks it and caches the relative result, later
// sightings just rebase the cached entries under the new prefix.
func (m *Mount) lsDeep(ctx context.Context, prefix string, node *model.Node, visited *cidutil.Set, cache map[cid.Cid][]Entry) ([]Entry, error) {
	var out []Entry
	for _, name := range node.Names() {
		link, _ := node.Get(name)
		full := prefix + "/" + name

		switch l := link.(type) {
		case model.DataLink:
			out = append(out, Entry{Path: full, Link: l})
		case model.SubNodeLink:
			c := l.Identifier.CID()
			if !visited.Visit(c) {
				out = append(out, rebase(cache[c], full)...)
				continue
			}
			child, err := m.getNode(ctx, l.Identifier)
			if err != nil {
				return nil, err
			}
			nested, err := m.lsDeep(ctx, "", child, visited, cache)
			if err != nil {
				return nil, err
			}
			cache[c] = nested
			out = append(out, rebase(nested, full)...)
		}
	}
	return out, nil
}

// rebase returns entries with prefix prepended to every path, for reusing a
// cached sub-node's flattening under a different parent path.
func rebase(entries []Entry, prefix string) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Path: prefix + e.Path, Link: e.Link}
	}
	return out
}

// Cat resolves path to a data-link and returns the bytes fetched from the
// store. Payload blocks are never cached, so this always hits the store.
func (m *Mount) Cat(ctx context.Context, path string) ([]byte, error) {
	link, err := m.resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	dataLink, ok := model.AsDataLink(link)
	if !ok {
		return nil, merrors.DataOnPath(path)
	}
	return m.store.Get(ctx, dataLink.Identifier)
}

// resolve walks path to its terminal node-link, mirroring the original's
// get_node_link_at_path: the root node itself for an empty path, otherwise
// the link named by the final segment.
func (m *Mount) resolve(ctx context.Context, path string) (model.NodeLink, error) {
	segments := splitPath(path)

	m.mu.Lock()
	dataID := m.manifest.Data
	m.mu.Unlock()

	if len(segments) == 0 {
		return model.SubNodeLink{Identifier: dataID}, nil
	}

	node, err := m.getNode(ctx, dataID)
	if err != nil {
		return nil, err
	}

	consumed := ""
	for _, name := range segments[:len(segments)-1] {
		consumed += "/" + name
		link, ok := node.Get(name)
		if !ok {
			return nil, merrors.PathNotFound(consumed)
		}
		sub, ok := model.AsSubNodeLink(link)
		if !ok {
			return nil, merrors.DataOnPath(consumed)
		}
		node, err = m.getNode(ctx, sub.Identifier)
		if err != nil {
			return nil, err
		}
	}

	last := segments[len(segments)-1]
	link, ok := node.Get(last)
	if !ok {
		return nil, merrors.PathNotFound(path)
	}
	return link, nil
}
