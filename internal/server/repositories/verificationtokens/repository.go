// Package verificationtokens persists the one-shot tokens that activate new accounts.
package verificationtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error
	// Find returns common.ErrorNotFound for unknown tokens.
	Find(ctx context.Context, token string) (*models.VerificationToken, error)
	Delete(ctx context.Context, token string) error
}
