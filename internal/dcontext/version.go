package dcontext

import "context"

type versionKey struct{}

func (versionKey) String() string { return "version" }

// WithVersion stores the version in the context, making it available to
// GetVersion and, via field propagation, to GetLogger.
func WithVersion(ctx context.Context, version string) context.Context {
	ctx = context.WithValue(ctx, versionKey{}, version)
	// log any errors configured with this context
	return WithLogger(ctx, GetLogger(ctx, versionKey{}))
}

// GetVersion returns the version stored in ctx, if any.
func GetVersion(ctx context.Context) string {
	return GetStringValue(ctx, versionKey{})
}
