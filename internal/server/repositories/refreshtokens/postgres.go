package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

const (
	insertToken = `
		INSERT INTO refresh_tokens (username, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	selectToken = `
		SELECT id, username, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	deleteToken = `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
)

// PostgresRepository stores refresh tokens in the refresh_tokens table.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create binds token to userName. A token value that is already stored
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, userName string, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{UserName: userName, Token: token}
	err := r.db.QueryRowContext(ctx, insertToken, userName, token).Scan(&rt.ID, &rt.CreatedAt)
	switch {
	case err == nil:
		return rt, nil
	case dbx.IsUniqueViolation(err):
		return nil, common.ErrorAlreadyExists
	default:
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt := &models.RefreshToken{Token: token}
	err := r.db.QueryRowContext(ctx, selectToken, token).Scan(&rt.ID, &rt.UserName, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select refresh token: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, deleteToken, token); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}
