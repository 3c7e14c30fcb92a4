package shared

import (
	"context"
	"time"
)

// Principal is the verified identity attached to a request by the access gate.
type Principal struct {
	UserID    string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
