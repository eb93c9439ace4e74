package navguard

import "context"

type clientIDContextKey struct{}

// WithClientID attaches the navigating client's ID to ctx. The Engine copies it
// into audit events and log lines.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDContextKey{}, clientID)
}

// ClientIDFromContext returns the ID set by [WithClientID], or "".
func ClientIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(clientIDContextKey{}).(string)
	return id
}
