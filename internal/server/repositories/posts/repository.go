// Package posts persists submissions and their aggregate vote counter.
package posts

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	// Create returns common.ErrorAlreadyExists when the post name is taken.
	Create(ctx context.Context, p *models.Post) (*models.Post, error)
	// Update rewrites name, URL and description of an existing post.
	Update(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// LockByID is GetByID that also row-locks the post until the surrounding
	// transaction ends. Inserts referencing the post wait for that lock.
	LockByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context) ([]*models.Post, error)
	ListBySubreddit(ctx context.Context, subredditID string) ([]*models.Post, error)
	ListByUserName(ctx context.Context, userName string) ([]*models.Post, error)
	// AddVoteCount atomically adds delta to vote_count and returns the new value.
	AddVoteCount(ctx context.Context, id string, delta int) (int, error)
	Delete(ctx context.Context, id string) error
}
