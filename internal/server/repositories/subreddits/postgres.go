package subreddits

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectSubreddit = `
	SELECT s.id, s.name, s.description, s.user_id, s.created_at,
	       (SELECT COUNT(*) FROM posts p WHERE p.subreddit_id = s.id) AS number_of_posts
	FROM subreddits s
`

func (r *PostgresRepository) Create(ctx context.Context, s *models.Subreddit) (*models.Subreddit, error) {
	query := `
		INSERT INTO subreddits (name, description, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, s.Name, s.Description, s.UserID).Scan(&s.ID, &s.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Subreddit, error) {
	return r.getOne(ctx, selectSubreddit+` WHERE s.id = $1`, id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Subreddit, error) {
	return r.getOne(ctx, selectSubreddit+` WHERE s.name = $1`, name)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, arg string) (*models.Subreddit, error) {
	s, err := scanSubreddit(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if dbx.IsMissingRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Subreddit, error) {
	rows, err := r.db.QueryContext(ctx, selectSubreddit+` ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Subreddit, 0)
	for rows.Next() {
		s, err := scanSubreddit(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubreddit(row scanner) (*models.Subreddit, error) {
	s := &models.Subreddit{}
	err := row.Scan(&s.ID, &s.Name, &s.Description, &s.UserID, &s.CreatedAt, &s.NumberOfPosts)
	return s, err
}
