package api

import (
	"context"

	"aegis/core"
)

// contextKey is a private type to prevent context key collisions across
// packages. Only this package can create keys, so no other code can inject
// a principal and bypass the access guard.
type contextKey string

const (
	// contextKeyPrincipal stores the authenticated *core.Principal.
	contextKeyPrincipal contextKey = "principal"

	// contextKeyRequestID stores the per-request identifier (string).
	contextKeyRequestID contextKey = "request_id"
)

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *core.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// GetPrincipal extracts the authenticated principal from the context.
// Returns nil and false when the request is unauthenticated.
func GetPrincipal(ctx context.Context) (*core.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(*core.Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// WithRequestID returns a context carrying the request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// GetRequestID extracts the request identifier from the context.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKeyRequestID).(string)
	return id, ok && id != ""
}
