package posts

import (
	"context"
	"database/sql"
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

const selectPost = `
	SELECT p.id, p.name, p.url, p.description, p.vote_count, p.user_id, p.subreddit_id, p.created_at,
	       u.username, s.name,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.user_id
	JOIN subreddits s ON s.id = p.subreddit_id
`

func (r *PostgresRepository) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (name, url, description, user_id, subreddit_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, vote_count, created_at
	`
	err := r.db.QueryRowContext(ctx, query, p.Name, p.URL, p.Description, p.UserID, p.SubredditID).
		Scan(&p.ID, &p.VoteCount, &p.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Post) error {
	query := `
		UPDATE posts SET name = $2, url = $3, description = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.URL, p.Description)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return common.ErrorAlreadyExists
		case dbx.IsInvalidTextRepresentation(err):
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.getOne(ctx, selectPost+` WHERE p.id = $1`, id)
}

func (r *PostgresRepository) LockByID(ctx context.Context, id string) (*models.Post, error) {
	return r.getOne(ctx, selectPost+` WHERE p.id = $1 FOR UPDATE OF p`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, id string) (*models.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if dbx.IsMissingRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` ORDER BY p.created_at DESC`)
}

func (r *PostgresRepository) ListBySubreddit(ctx context.Context, subredditID string) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` WHERE p.subreddit_id = $1 ORDER BY p.created_at DESC`, subredditID)
}

func (r *PostgresRepository) ListByUserName(ctx context.Context, userName string) ([]*models.Post, error) {
	return r.list(ctx, selectPost+` WHERE u.username = $1 ORDER BY p.created_at DESC`, userName)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) AddVoteCount(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE posts SET vote_count = vote_count + $2
		WHERE id = $1
		RETURNING vote_count
	`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&count); err != nil {
		if dbx.IsMissingRow(err) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		if dbx.IsInvalidTextRepresentation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*models.Post, error) {
	p := &models.Post{}
	err := row.Scan(&p.ID, &p.Name, &p.URL, &p.Description, &p.VoteCount, &p.UserID, &p.SubredditID, &p.CreatedAt,
		&p.UserName, &p.SubredditName, &p.CommentCount)
	return p, err
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
