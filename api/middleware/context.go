package middleware

import (
	"context"

	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// WithIdentity stores the resolved caller on the context.
func WithIdentity(ctx context.Context, owner identity.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, owner)
}

// IdentityFromContext returns the caller resolved by the Identity middleware.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	if ctx == nil {
		return identity.Identity{}, false
	}
	owner, ok := ctx.Value(ctxIdentity).(identity.Identity)
	if !ok || !owner.IsValid() {
		return identity.Identity{}, false
	}
	return owner, true
}

// CallerFromContext is IdentityFromContext for handlers: a missing identity
// means the Identity middleware was not mounted and is reported as unauthorized.
func CallerFromContext(ctx context.Context) (identity.Identity, error) {
	owner, ok := IdentityFromContext(ctx)
	if !ok {
		return identity.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing")
	}
	return owner, nil
}
