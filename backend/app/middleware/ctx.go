package middleware

import (
	"context"

	"fleetpulse/backend/app/auth"
)

type ctxKey int

const (
	principalKey ctxKey = iota + 1
	requestIDKey
)

func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the caller authenticated by RequireAuth, or nil.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(principalKey).(*auth.Principal)
	return p
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
