package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/merrors"
)

// errorResponse is the JSON body written for a failed request. Code is the
// same identifier merrors' descriptor table uses, so a CLI or viewer client
// can switch on it without parsing Message.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps err to its descriptor's default status code and writes a
// JSON body carrying the code identifier and message, the same descriptor-
// table-driven status mapping the teacher's api/errors package used.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := merrors.CodeOf(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.StatusCode())
	if encErr := json.NewEncoder(w).Encode(errorResponse{Code: code.String(), Message: err.Error()}); encErr != nil {
		dcontext.GetLogger(ctx).Errorf("error encoding error response: %v", encErr)
	}
}

// writeJSON writes v as a JSON response body with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		dcontext.GetLogger(ctx).Errorf("error encoding response: %v", err)
	}
}
