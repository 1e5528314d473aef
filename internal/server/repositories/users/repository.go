// Package users declares and implements persistence for registered identities.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills its ID and CreatedAt. A taken username
	// or email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Enable marks the account verified.
	Enable(ctx context.Context, id string) error
}
