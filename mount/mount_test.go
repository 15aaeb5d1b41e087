package mount

import (
	"context"
	"testing"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
)

func TestInitCreatesEmptyRoot(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()

	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	entries, schema, err := m.Ls(ctx, "/", false)
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %d entries", len(entries))
	}
	if schema != nil {
		t.Fatalf("expected no schema on a fresh root")
	}
	if !m.Manifest().Previous.IsDefault() {
		t.Fatalf("genesis manifest should chain from the default identifier")
	}
}

func TestAddCatRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := m.Add(ctx, "/a/b/hello.txt", []byte("hello world"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := m.Cat(ctx, "/a/b/hello.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("Cat round trip mismatch: got %q", got)
	}

	entries, _, err := m.Ls(ctx, "/a/b", false)
	if err != nil {
		t.Fatalf("Ls /a/b: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "hello.txt" {
		t.Fatalf("unexpected entries at /a/b: %+v", entries)
	}
}

func TestAddDeepLsLexicographicOrder(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	paths := []string{"/z/one.txt", "/a/two.txt", "/a/one.txt", "/m/three.txt"}
	for _, p := range paths {
		if err := m.Add(ctx, p, []byte(p), false); err != nil {
			t.Fatalf("Add %s: %v", p, err)
		}
	}

	entries, _, err := m.Ls(ctx, "/", true)
	if err != nil {
		t.Fatalf("Ls deep: %v", err)
	}
	want := []string{"/a/one.txt", "/a/two.txt", "/m/three.txt", "/z/one.txt"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d: %+v", len(want), len(entries), entries)
	}
	for i, w := range want {
		if entries[i].Path != w {
			t.Fatalf("entry %d: got %q, want %q", i, entries[i].Path, w)
		}
	}
}

func TestRmCascadesEmptySubtreePruning(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	freshRoot := m.Root()

	if err := m.Add(ctx, "/a/b/only.txt", []byte("x"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Rm(ctx, "/a/b/only.txt"); err != nil {
		t.Fatalf("Rm: %v", err)
	}

	entries, _, err := m.Ls(ctx, "/", false)
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected the empty a/ subtree to be pruned back to an empty root, got %+v", entries)
	}

	if _, err := m.Cat(ctx, "/a/b/only.txt"); merrors.CodeOf(err) != merrors.ErrorCodePathNotFound {
		t.Fatalf("expected PathNotFound after removal, got %v", err)
	}

	// add then rm must land on the exact same root identifier as a fresh
	// Init, not merely an empty listing: a local mutation's manifest never
	// re-chains `previous`, so the two manifests (and their CIDs) coincide.
	if !m.Root().Equal(freshRoot) {
		t.Fatalf("expected add-then-rm to return to the fresh-init root %s, got %s", freshRoot, m.Root())
	}
}

func TestRmMissingPathIsNoop(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	rootBefore := m.Root()

	if err := m.Rm(ctx, "/does/not/exist"); err != nil {
		t.Fatalf("Rm of a nonexistent path should be a no-op, got %v", err)
	}
	if !m.Root().Equal(rootBefore) {
		t.Fatalf("root should not change when removing a nonexistent path")
	}
}

func TestTagPreservesCreatedAtAcrossUpdates(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Add(ctx, "/doc.txt", []byte("v1"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := m.Tag(ctx, "/doc.txt", map[string]model.Value{"author": model.String("alice")}); err != nil {
		t.Fatalf("Tag (first): %v", err)
	}

	entries, _, err := m.Ls(ctx, "/", false)
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	dataLink, ok := model.AsDataLink(entries[0].Link)
	if !ok || dataLink.Object == nil {
		t.Fatalf("expected a tagged data link, got %+v", entries[0].Link)
	}
	firstCreated := dataLink.Object.CreatedAt

	if err := m.Tag(ctx, "/doc.txt", map[string]model.Value{"author": model.String("bob")}); err != nil {
		t.Fatalf("Tag (second): %v", err)
	}

	entries, _, err = m.Ls(ctx, "/", false)
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	dataLink, ok = model.AsDataLink(entries[0].Link)
	if !ok || dataLink.Object == nil {
		t.Fatalf("expected a tagged data link after second tag")
	}
	if !dataLink.Object.CreatedAt.Equal(firstCreated) {
		t.Fatalf("created_at should be preserved across retagging: got %v, want %v",
			dataLink.Object.CreatedAt, firstCreated)
	}
	if dataLink.Object.Properties["author"].Str != "bob" {
		t.Fatalf("expected updated author property, got %+v", dataLink.Object.Properties["author"])
	}
}

func TestTagRequiresExistingDataLink(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	err = m.Tag(ctx, "/missing.txt", map[string]model.Value{"k": model.String("v")})
	if merrors.CodeOf(err) != merrors.ErrorCodePathNotFound {
		t.Fatalf("expected PathNotFound tagging a nonexistent path, got %v", err)
	}
}

func TestSetSchemaValidatesFutureTags(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	schema := model.Schema{Properties: map[string]model.PropertySchema{
		"author": {Type: model.PropertyString, Required: true},
	}}
	if err := m.SetSchema(ctx, "/docs", schema); err != nil {
		t.Fatalf("SetSchema: %v", err)
	}
	if err := m.Add(ctx, "/docs/report.txt", []byte("data"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err = m.Tag(ctx, "/docs/report.txt", map[string]model.Value{"wrong": model.String("x")})
	if merrors.CodeOf(err) != merrors.ErrorCodeSchemaValidation {
		t.Fatalf("expected SchemaValidation for missing required property, got %v", err)
	}

	if err := m.Tag(ctx, "/docs/report.txt", map[string]model.Value{"author": model.String("alice")}); err != nil {
		t.Fatalf("Tag with a valid property set should succeed: %v", err)
	}
}

func TestSetSchemaOnMultiSegmentPathValidatesChildTags(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := m.Add(ctx, "/a/b/c.txt", []byte("data"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	schema := model.Schema{Properties: map[string]model.PropertySchema{
		"author": {Type: model.PropertyString, Required: true},
	}}
	// set_schema on a multi-segment path (creating /a/b's schema, not /a's)
	// must still persist: the interior recursion must not strip persist off
	// the caller's schema argument before it reaches the terminal segment.
	if err := m.SetSchema(ctx, "/a/b", schema); err != nil {
		t.Fatalf("SetSchema on a multi-segment path: %v", err)
	}

	_, schemaAtB, err := m.Ls(ctx, "/a/b", false)
	if err != nil {
		t.Fatalf("Ls /a/b: %v", err)
	}
	if schemaAtB == nil {
		t.Fatalf("expected /a/b to carry the installed schema")
	}

	err = m.Tag(ctx, "/a/b/c.txt", map[string]model.Value{"wrong": model.String("x")})
	if merrors.CodeOf(err) != merrors.ErrorCodeSchemaValidation {
		t.Fatalf("expected SchemaValidation under the overriding child schema, got %v", err)
	}

	if err := m.Tag(ctx, "/a/b/c.txt", map[string]model.Value{"author": model.String("alice")}); err != nil {
		t.Fatalf("Tag with a valid property set should succeed: %v", err)
	}
}

func TestSetSchemaOnDataLinkFails(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Add(ctx, "/file.txt", []byte("data"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err = m.SetSchema(ctx, "/file.txt", model.Schema{})
	if merrors.CodeOf(err) != merrors.ErrorCodeSchemaOnData {
		t.Fatalf("expected SchemaOnData installing a schema on a data link, got %v", err)
	}
}

func TestAddThroughDataLinkFailsDataOnPath(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Add(ctx, "/a", []byte("data"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err = m.Add(ctx, "/a/b", []byte("nested"), false)
	if merrors.CodeOf(err) != merrors.ErrorCodeDataOnPath {
		t.Fatalf("expected DataOnPath adding under an existing file, got %v", err)
	}
}

func TestPushPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Add(ctx, "/a/b.txt", []byte("payload"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}

	pulled, err := Pull(ctx, m.Root(), store)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	got, err := pulled.Cat(ctx, "/a/b.txt")
	if err != nil {
		t.Fatalf("Cat after pull: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("pulled content mismatch: got %q", got)
	}
}

func TestUpdateRejectsMismatchedPrevious(t *testing.T) {
	ctx := context.Background()
	storeA := blockstore.NewMemory()
	a, err := Init(ctx, storeA)
	if err != nil {
		t.Fatalf("Init a: %v", err)
	}
	if err := a.Add(ctx, "/x.txt", []byte("x"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := a.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}

	// b shares a's store so that a.Update can fetch b's manifest and reach
	// the previous-root check.
	b, err := Init(ctx, storeA)
	if err != nil {
		t.Fatalf("Init b: %v", err)
	}
	if err := b.Add(ctx, "/y.txt", []byte("y"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}

	err = a.Update(ctx, b.Root())
	if merrors.CodeOf(err) != merrors.ErrorCodePreviousMismatch {
		t.Fatalf("expected PreviousMismatch updating to an unrelated root, got %v", err)
	}
}

func TestHashOnlyAddLinksWithoutTransferringPayload(t *testing.T) {
	ctx := context.Background()
	store := blockstore.NewMemory()
	m, err := Init(ctx, store)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	if err := m.Add(ctx, "/staged.txt", []byte("staged"), true); err != nil {
		t.Fatalf("Add (hash-only): %v", err)
	}

	entries, _, err := m.Ls(ctx, "/", false)
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "staged.txt" {
		t.Fatalf("expected a link for the hashed-only file, got %+v", entries)
	}

	// The data-link exists, but its payload was never transferred to the
	// store, so fetching it fails: hashOnly derives an identifier without
	// persisting the bytes behind it.
	if _, err := m.Cat(ctx, "/staged.txt"); merrors.CodeOf(err) != merrors.ErrorCodeNotFound {
		t.Fatalf("expected NotFound fetching a hash-only payload never added to the store, got %v", err)
	}
}
