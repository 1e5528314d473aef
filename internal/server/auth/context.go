package auth

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying the authenticated user.
func WithIdentity(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, identityKey, user)
}

// IdentityFromContext returns the user attached by WithIdentity, if any.
func IdentityFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(identityKey).(*models.User)
	return user, ok && user != nil
}

// CurrentIdentity is IdentityFromContext for call sites that require a user.
// It fails with common.ErrUnauthenticated when none is attached.
func CurrentIdentity(ctx context.Context) (*models.User, error) {
	user, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, common.ErrUnauthenticated
	}
	return user, nil
}
