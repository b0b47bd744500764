package metadata

import "context"

type contextKey struct{}

// NewContext returns a context carrying the given transport metadata.
func NewContext(ctx context.Context, md Metadata) context.Context {
	return context.WithValue(ctx, contextKey{}, md)
}

// FromContext returns the transport metadata stored in ctx, or an empty map.
// Consumers receive the headers of the message currently being handled.
func FromContext(ctx context.Context) Metadata {
	if md, ok := ctx.Value(contextKey{}).(Metadata); ok {
		return md
	}
	return Metadata{}
}
