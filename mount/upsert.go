package mount

import (
	"context"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
)

// upsertArgs bundles the three optional mutation arguments §4.5 threads
// through the recursion: a new data-link, a new object, or a schema to
// install/inherit.
type upsertArgs struct {
	link   *block.Identifier // Some(id): insert/overwrite a data link
	object *model.Object     // Some(o): upsert an object at the terminal link
	schema *schemaArg        // Some((s, persist)): install or inherit a schema
}

type schemaArg struct {
	schema  model.Schema
	persist bool
}

func (a upsertArgs) isRemoval() bool {
	return a.link == nil && a.object == nil && a.schema == nil
}

// upsertResult distinguishes "no change" from "this node is gone" from
// "this node was rewritten", mirroring Option<Option<Cid>> in the original:
// a nil result means None; Removed=true means Some(default-id); otherwise
// ID carries Some(new-id).
type upsertResult struct {
	Removed bool
	ID      block.Identifier
}

// upsertNode is the recursive rewrite algorithm of §4.5. node is read from
// the cache by the caller; segments is the remaining path to resolve.
// Returns nil (no change), a Removed result (this node is gone), or a
// result carrying the node's freshly re-encoded identifier.
func (m *Mount) upsertNode(ctx context.Context, node *model.Node, segments []string, args upsertArgs) (*upsertResult, error) {
	if len(segments) == 0 {
		panic("mount: upsertNode called with an empty remaining path")
	}

	name := segments[0]

	// Effective schema for this call: the node's own schema (non-persisting)
	// takes precedence, else the inherited argument propagates unchanged.
	effective := args.schema
	if node.Schema != nil {
		effective = &schemaArg{schema: *node.Schema, persist: false}
	}

	if len(segments) == 1 {
		return m.upsertTerminal(ctx, node, name, args, effective)
	}
	return m.upsertInterior(ctx, node, name, segments[1:], args)
}

func (m *Mount) upsertTerminal(ctx context.Context, node *model.Node, name string, args upsertArgs, effective *schemaArg) (*upsertResult, error) {
	switch {
	case args.isRemoval():
		if _, ok := node.Get(name); !ok {
			return nil, nil
		}
		node.Delete(name)
		if node.Len() == 0 {
			return &upsertResult{Removed: true}, nil
		}
		id, err := m.putNodeCache(ctx, node)
		if err != nil {
			return nil, err
		}
		return &upsertResult{ID: id}, nil

	case args.link != nil:
		var link model.NodeLink
		if args.link.IsRaw() {
			link = model.DataLink{Identifier: *args.link}
		} else {
			link = model.SubNodeLink{Identifier: *args.link}
		}
		node.Set(name, link)
		id, err := m.putNodeCache(ctx, node)
		if err != nil {
			return nil, err
		}
		return &upsertResult{ID: id}, nil

	case args.object == nil && args.schema != nil && args.schema.persist:
		return m.installSchema(ctx, node, name, args.schema.schema)

	case args.object != nil:
		existing, ok := node.Get(name)
		if !ok {
			return nil, merrors.PathNotFound(name)
		}
		dataLink, ok := model.AsDataLink(existing)
		if !ok {
			return nil, merrors.DataOnPath(name)
		}

		schema := model.Schema{}
		if effective != nil {
			schema = effective.schema
		}
		if err := schema.Validate(*args.object); err != nil {
			return nil, err
		}

		node.Set(name, model.DataLink{Identifier: dataLink.Identifier, Object: args.object})
		id, err := m.putNodeCache(ctx, node)
		if err != nil {
			return nil, err
		}
		return &upsertResult{ID: id}, nil

	default:
		// No link, object, or persisting schema: nothing to do at the
		// terminal segment.
		return nil, nil
	}
}

// installSchema implements the "schema install only" terminal branch: a
// child Node gets its schema rebound; a child Data link fails with
// SchemaOnData; a non-existent name gets a fresh empty node with the schema
// attached.
func (m *Mount) installSchema(ctx context.Context, node *model.Node, name string, schema model.Schema) (*upsertResult, error) {
	existing, ok := node.Get(name)
	if !ok {
		child := model.NewNode()
		s := schema
		child.Schema = &s
		childID, err := m.putNodeCache(ctx, child)
		if err != nil {
			return nil, err
		}
		node.Set(name, model.SubNodeLink{Identifier: childID})
		id, err := m.putNodeCache(ctx, node)
		if err != nil {
			return nil, err
		}
		return &upsertResult{ID: id}, nil
	}

	sub, ok := model.AsSubNodeLink(existing)
	if !ok {
		return nil, merrors.SchemaOnData(name)
	}

	child, err := m.getNode(ctx, sub.Identifier)
	if err != nil {
		return nil, err
	}
	s := schema
	child.Schema = &s
	childID, err := m.putNodeCache(ctx, child)
	if err != nil {
		return nil, err
	}
	node.Set(name, model.SubNodeLink{Identifier: childID})
	id, err := m.putNodeCache(ctx, node)
	if err != nil {
		return nil, err
	}
	return &upsertResult{ID: id}, nil
}

func (m *Mount) upsertInterior(ctx context.Context, node *model.Node, name string, rest []string, args upsertArgs) (*upsertResult, error) {
	existing, ok := node.Get(name)

	var child *model.Node
	switch {
	case ok:
		sub, isNode := model.AsSubNodeLink(existing)
		if !isNode {
			return nil, merrors.DataOnPath(name)
		}
		var err error
		child, err = m.getNode(ctx, sub.Identifier)
		if err != nil {
			return nil, err
		}
	case args.link != nil:
		child = model.NewNode()
	default:
		// Nothing to remove/tag/schema-install below a path that doesn't exist.
		return nil, nil
	}

	// A persisting set_schema argument threads straight through interior
	// hops unchanged, so it reaches the terminal segment still persisting.
	// For a tag, this level's own schema (if any) is handed down as the
	// inherited, non-persisting schema, so the nearest ancestor's schema
	// governs descendants that set none of their own.
	schema := args.schema
	if args.object != nil && node.Schema != nil {
		schema = &schemaArg{schema: *node.Schema, persist: false}
	}
	childArgs := upsertArgs{link: args.link, object: args.object, schema: schema}

	result, err := m.upsertNode(ctx, child, rest, childArgs)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	if result.Removed {
		node.Delete(name)
	} else {
		node.Set(name, model.SubNodeLink{Identifier: result.ID})
	}

	if node.Len() == 0 {
		return &upsertResult{Removed: true}, nil
	}
	id, err := m.putNodeCache(ctx, node)
	if err != nil {
		return nil, err
	}
	return &upsertResult{ID: id}, nil
}
