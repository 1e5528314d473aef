// Package votes stores the append-only vote log.
package votes

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	// LockPair serializes writers of one (post, user) pair until the
	// surrounding transaction ends. Outside a transaction it is a no-op.
	LockPair(ctx context.Context, postID, userID string) error
	// FindLatest returns the newest entry for the pair or common.ErrorNotFound.
	FindLatest(ctx context.Context, postID, userID string) (*models.Vote, error)
	Create(ctx context.Context, v *models.Vote) (*models.Vote, error)
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}

// PairKey is the lock key of a (post, user) pair.
func PairKey(postID, userID string) string {
	return postID + "/" + userID
}
