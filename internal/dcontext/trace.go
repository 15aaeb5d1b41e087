package dcontext

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
)

// WithTrace allocates a traced timing span in a new context, set up to log
// to the logger in the context. It returns a context with the trace values
// attached and a done function that should be deferred to log the
// completion of the traced operation.
func WithTrace(ctx context.Context) (context.Context, func(format string, a ...interface{})) {
	if ctx == nil {
		ctx = Background()
	}

	parentID := ctx.Value("trace.id")

	pc, file, line, _ := runtime.Caller(1)
	f := runtime.FuncForPC(pc)
	id := uuid.New().String()
	start := time.Now()

	ctx = context.WithValue(ctx, "trace.id", id)
	ctx = context.WithValue(ctx, "trace.file", file)
	ctx = context.WithValue(ctx, "trace.line", line)
	ctx = context.WithValue(ctx, "trace.func", f.Name())
	ctx = context.WithValue(ctx, "trace.start", start)
	if parentID != nil {
		ctx = context.WithValue(ctx, "trace.parent.id", parentID)
	}

	logger := GetLogger(ctx,
		"trace.id",
		"trace.file",
		"trace.line",
		"trace.func")
	ctx = WithLogger(ctx, logger)

	return ctx, func(format string, a ...interface{}) {
		elapsed := time.Since(start)
		GetLoggerWithField(ctx, "trace.duration", elapsed).Debugf(format, a...)
	}
}
