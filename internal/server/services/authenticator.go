package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/cryptox"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
)

// Authenticator checks a username and password pair.
type Authenticator interface {
	// Authenticate returns the user or common.ErrorUnauthorized.
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// PasswordAuthenticator compares against the stored password hash. Unknown
// users are compared against a dummy digest so the cost of a miss matches the
// cost of a wrong password.
type PasswordAuthenticator struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	dummyHash   string
}

func NewPasswordAuthenticator(db *sql.DB, m repomanager.RepositoryManager, hasher cryptox.PasswordHasher) (*PasswordAuthenticator, error) {
	dummy, err := hasher.Hash("gophreddit-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("dummy password hash: %w", err)
	}
	return &PasswordAuthenticator{db: db, repomanager: m, hasher: hasher, dummyHash: dummy}, nil
}

func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.repomanager.Users(a.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.hasher.Matches(password, a.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !a.hasher.Matches(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if !user.Enabled {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}
