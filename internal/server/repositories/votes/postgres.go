package votes

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

func (r *PostgresRepository) LockPair(ctx context.Context, postID, userID string) error {
	_, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, PairKey(postID, userID))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindLatest(ctx context.Context, postID, userID string) (*models.Vote, error) {
	query := `
		SELECT id, seq, post_id, user_id, vote_type, created_at
		FROM votes
		WHERE post_id = $1 AND user_id = $2
		ORDER BY seq DESC
		LIMIT 1
	`
	v := &models.Vote{}
	err := r.db.QueryRowContext(ctx, query, postID, userID).
		Scan(&v.ID, &v.Seq, &v.PostID, &v.UserID, &v.VoteType, &v.CreatedAt)
	if err != nil {
		if dbx.IsMissingRow(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Create(ctx context.Context, v *models.Vote) (*models.Vote, error) {
	query := `
		INSERT INTO votes (post_id, user_id, vote_type)
		VALUES ($1, $2, $3)
		RETURNING id, seq, created_at
	`
	err := r.db.QueryRowContext(ctx, query, v.PostID, v.UserID, int(v.VoteType)).Scan(&v.ID, &v.Seq, &v.CreatedAt)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM votes WHERE post_id = $1`, postID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
