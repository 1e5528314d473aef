package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()

	_, ok := IdentityFromContext(ctx)
	assert.False(t, ok)

	_, err := CurrentIdentity(ctx)
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	alice := &models.User{ID: "u-1", UserName: "alice"}
	ctx = WithIdentity(ctx, alice)

	got, err := CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Same(t, alice, got)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), nil))
	assert.False(t, ok, "nil user is not an identity")
}
