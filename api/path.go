package api

import (
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/mountfs/mount/merrors"
	"github.com/mountfs/mount/model"
	"github.com/mountfs/mount/mount"
)

// listEntry is one element of a directory listing's JSON array (§6.2):
// `{cid, path, is_dir, object?}`.
type listEntry struct {
	CID    string          `json:"cid"`
	Path   string          `json:"path"`
	IsDir  bool            `json:"is_dir"`
	Object *objectResponse `json:"object,omitempty"`
}

type objectResponse struct {
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// handleGetPath serves GET /{path...}: a directory listing if path names a
// node, the raw payload bytes if it names a file, 404 on a miss. Content-
// type is inferred from the terminal extension, per §6.2 — markdown
// rendering and thumbnailing are external collaborators, not implemented
// here.
func (app *App) handleGetPath(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := r.URL.Path
	m := app.currentMount()

	entries, _, err := m.Ls(ctx, path, false)
	if err != nil {
		if merrors.CodeOf(err) == merrors.ErrorCodeDataOnPath {
			data, catErr := m.Cat(ctx, path)
			if catErr != nil {
				writeError(ctx, w, catErr)
				return
			}
			w.Header().Set("Content-Type", contentTypeFor(path))
			w.Header().Set("Content-Digest", digest.FromBytes(data).String())
			if _, writeErr := w.Write(data); writeErr != nil {
				return
			}
			return
		}
		writeError(ctx, w, err)
		return
	}

	out := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toListEntry(path, e))
	}
	writeJSON(ctx, w, http.StatusOK, out)
}

func toListEntry(dir string, e mount.Entry) listEntry {
	prefix := dir
	if prefix == "/" {
		prefix = ""
	}

	entry := listEntry{
		CID:  e.Link.ID().String(),
		Path: prefix + "/" + e.Path,
	}

	switch l := e.Link.(type) {
	case model.SubNodeLink:
		entry.IsDir = true
	case model.DataLink:
		if l.Object != nil {
			entry.Object = &objectResponse{
				CreatedAt:  l.Object.CreatedAt,
				UpdatedAt:  l.Object.UpdatedAt,
				Properties: propertiesToJSON(l.Object.Properties),
			}
		}
	}
	return entry
}

// propertiesToJSON converts an Object's tagged-scalar property map into
// plain JSON-encodable values.
func propertiesToJSON(props map[string]model.Value) map[string]interface{} {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = valueToJSON(v)
	}
	return out
}

func valueToJSON(v model.Value) interface{} {
	switch v.Kind {
	case model.ValueString:
		return v.Str
	case model.ValueInt:
		return v.Int
	case model.ValueFloat:
		return v.Flt
	case model.ValueBool:
		return v.Bool
	case model.ValueMap:
		return propertiesToJSON(v.Map)
	case model.ValueLink:
		return v.Link.String()
	default:
		return nil
	}
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
