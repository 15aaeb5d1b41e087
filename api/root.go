package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mountfs/mount/block"
	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/rootptr"
)

// rootResponse is the body of GET /api/v0/root: the current root identifier.
type rootResponse struct {
	CID string `json:"cid"`
}

func (app *App) handleGetRoot(w http.ResponseWriter, r *http.Request) {
	root := app.currentMount().Root()
	writeJSON(r.Context(), w, http.StatusOK, rootResponse{CID: root.String()})
}

// pushRootRequest is the body of POST /api/v0/root.
type pushRootRequest struct {
	CID         string `json:"cid"`
	PreviousCID string `json:"previous_cid"`
}

type pushRootResponse struct {
	CID         string `json:"cid"`
	PreviousCID string `json:"previous_cid"`
}

// handlePostRoot advances the coordinator's head per §4.6, returning 200 on
// success, 400 on an *InvalidLink* manifest chain, 409 on a CAS *Conflict*.
func (app *App) handlePostRoot(w http.ResponseWriter, r *http.Request) {
	if app.token != "" && !authorized(r, app.token) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var body pushRootRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	root, err := block.ParseIdentifier(body.CID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	previous, err := block.ParseIdentifier(body.PreviousCID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := rootptr.Push(ctx, app.coord, app.store, root, previous); err != nil {
		writeError(ctx, w, err)
		return
	}

	app.mu.Lock()
	if updateErr := app.m.Update(ctx, root); updateErr != nil {
		dcontext.GetLogger(ctx).Warnf("mount update to new root %s failed: %v", root, updateErr)
	}
	app.mu.Unlock()

	writeJSON(ctx, w, http.StatusOK, pushRootResponse{CID: root.String(), PreviousCID: previous.String()})
}

// authorized reports whether r carries the configured bearer token.
func authorized(r *http.Request, token string) bool {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	return strings.HasPrefix(h, prefix) && strings.TrimPrefix(h, prefix) == token
}
