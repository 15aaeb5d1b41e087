package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mountfs/mount/blockstore"
	"github.com/mountfs/mount/rootptr"
)

func newTestApp(t *testing.T) (*App, blockstore.Store, rootptr.Coordinator) {
	t.Helper()
	store := blockstore.NewMemory()
	coord := rootptr.NewInMemory()

	app, err := NewApp(context.Background(), store, coord, "")
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app, store, coord
}

func TestGetRootReturnsCurrentHead(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/root", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body rootResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.CID == "" {
		t.Fatalf("expected a non-empty cid")
	}
}

func TestGetPathListsEmptyRoot(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var entries []listEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(entries))
	}
}

func TestGetPathMissingReturns404(t *testing.T) {
	app, _, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nope.txt", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPostRootPushesNewHead(t *testing.T) {
	app, _, coord := newTestApp(t)

	ctx := context.Background()
	previous, err := coord.PullRoot(ctx)
	if err != nil {
		t.Fatalf("PullRoot: %v", err)
	}

	if err := app.m.Add(ctx, "/a.txt", []byte("hello"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := app.m.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}
	newRoot := app.currentMount().Root()

	body, _ := json.Marshal(pushRootRequest{CID: newRoot.String(), PreviousCID: previous.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v0/root", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v0/root", nil)
	getRec := httptest.NewRecorder()
	app.ServeHTTP(getRec, getReq)
	var got rootResponse
	if err := json.Unmarshal(getRec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CID != newRoot.String() {
		t.Fatalf("coordinator head = %s, want %s", got.CID, newRoot.String())
	}
}

func TestPostRootRejectsUnauthorized(t *testing.T) {
	store := blockstore.NewMemory()
	coord := rootptr.NewInMemory()
	app, err := NewApp(context.Background(), store, coord, "secret")
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	body, _ := json.Marshal(pushRootRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/v0/root", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestPostRootConflictOnStaleHead(t *testing.T) {
	app, _, coord := newTestApp(t)
	ctx := context.Background()

	genesisRoot, err := coord.PullRoot(ctx)
	if err != nil {
		t.Fatalf("PullRoot: %v", err)
	}

	if err := app.m.Add(ctx, "/a.txt", []byte("one"), false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := app.m.Push(ctx); err != nil {
		t.Fatalf("Push: %v", err)
	}
	firstRoot := app.currentMount().Root()

	body, _ := json.Marshal(pushRootRequest{CID: firstRoot.String(), PreviousCID: genesisRoot.String()})
	req := httptest.NewRequest(http.MethodPost, "/api/v0/root", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first push: status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	// Replaying the same (root, previous) pair should now lose the CAS: the
	// coordinator's head has already advanced past genesisRoot.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v0/root", bytes.NewReader(body))
	rec2 := httptest.NewRecorder()
	app.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusConflict {
		t.Fatalf("replay: status = %d, want 409, body=%s", rec2.Code, rec2.Body.String())
	}
}
