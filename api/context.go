package api

import (
	"context"
	"net/http"

	"github.com/mountfs/mount/internal/dcontext"
	"github.com/mountfs/mount/internal/requestutil"
	"github.com/mountfs/mount/internal/uuid"
)

type requestIDKey struct{}

// withRequestContext attaches a request ID (propagated from an incoming
// X-Request-Id header, or freshly minted) and a logger carrying it plus the
// method/path/remote-address fields, following the teacher's
// registry/context.go per-request Context.
func withRequestContext(ctx context.Context, r *http.Request) context.Context {
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, requestIDKey{}, requestID)

	logger := dcontext.GetLoggerWithFields(ctx, map[any]any{
		"request.id":         requestID,
		"request.method":     r.Method,
		"request.path":       r.URL.Path,
		"request.remoteaddr": requestutil.RemoteAddr(r),
	})
	return dcontext.WithLogger(ctx, logger)
}

// RequestID returns the request ID stashed in ctx by the logging
// middleware, or "" if ctx was never passed through it.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
