// Package subreddits persists communities that group posts.
package subreddits

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the name is taken.
	Create(ctx context.Context, s *models.Subreddit) (*models.Subreddit, error)
	GetByID(ctx context.Context, id string) (*models.Subreddit, error)
	GetByName(ctx context.Context, name string) (*models.Subreddit, error)
	List(ctx context.Context) ([]*models.Subreddit, error)
}
