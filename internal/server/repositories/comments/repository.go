// Package comments persists comments attached to posts.
package comments

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	ListByUserName(ctx context.Context, userName string) ([]*models.Comment, error)
	Delete(ctx context.Context, id string) error
	// DeleteByPost removes every comment of a post and reports how many went.
	DeleteByPost(ctx context.Context, postID string) (int64, error)
}
