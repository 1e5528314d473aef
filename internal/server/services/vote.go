package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/auth"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/votes"
	"github.com/dmitrijs2005/gophreddit/internal/syncx"
)

type VoteRequest struct {
	PostID   string          `json:"postId" validate:"required"`
	VoteType models.VoteType `json:"voteType" validate:"required"`
}

// DuplicateVoteError is returned when a vote repeats the caller's current vote.
type DuplicateVoteError struct {
	VoteType models.VoteType
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("You have already %s'd for this post", e.VoteType)
}

func (e *DuplicateVoteError) Unwrap() error { return common.ErrDuplicateVote }

// VoteDelta returns the change to a post's vote count when requested follows
// prior. A zero prior means the user has not voted yet.
//
//	prior  requested  delta
//	none   UP         +1
//	none   DOWN       -1
//	UP     DOWN       -2
//	DOWN   UP         +2
//	X      X          DuplicateVoteError
func VoteDelta(prior, requested models.VoteType) (int, error) {
	if !requested.Valid() {
		return 0, fmt.Errorf("%w: unknown vote type", common.ErrorValidation)
	}
	switch {
	case prior == 0:
		return int(requested), nil
	case prior == requested:
		return 0, &DuplicateVoteError{VoteType: requested}
	default:
		return 2 * int(requested), nil
	}
}

// VoteService appends to the vote log and keeps posts.vote_count in step.
// Votes of one (post, user) pair are applied one at a time: in process by a
// keyed mutex and across processes by a transaction-scoped advisory lock.
type VoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	locks       syncx.KeyedMutex
	log         logging.Logger
}

func NewVoteService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *VoteService {
	return &VoteService{db: db, repomanager: m, log: log.With("module", "votes")}
}

// Vote casts req on behalf of the identity attached to ctx.
func (s *VoteService) Vote(ctx context.Context, req VoteRequest) error {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return err
	}
	if err := Validate(req); err != nil {
		return err
	}
	return s.CastVote(ctx, req.PostID, user.ID, req.VoteType)
}

// CastVote records voteType by userID on postID. Repeating the current vote
// fails with a *DuplicateVoteError and leaves no trace.
func (s *VoteService) CastVote(ctx context.Context, postID, userID string, voteType models.VoteType) error {
	if !voteType.Valid() {
		return fmt.Errorf("%w: unknown vote type", common.ErrorValidation)
	}

	unlock := s.locks.Lock(votes.PairKey(postID, userID))
	defer unlock()

	var count int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Posts(tx).GetByID(ctx, postID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrPostNotFound
			}
			return fmt.Errorf("error loading post: %w", err)
		}

		voteRepo := s.repomanager.Votes(tx)
		if err := voteRepo.LockPair(ctx, postID, userID); err != nil {
			return fmt.Errorf("error locking vote pair: %w", err)
		}

		var prior models.VoteType
		latest, err := voteRepo.FindLatest(ctx, postID, userID)
		switch {
		case err == nil:
			prior = latest.VoteType
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("error loading latest vote: %w", err)
		}

		delta, err := VoteDelta(prior, voteType)
		if err != nil {
			return err
		}

		if _, err := voteRepo.Create(ctx, &models.Vote{PostID: postID, UserID: userID, VoteType: voteType}); err != nil {
			if errors.Is(err, common.ErrPostNotFound) {
				return err
			}
			return fmt.Errorf("error appending vote: %w", err)
		}
		count, err = s.repomanager.Posts(tx).AddVoteCount(ctx, postID, delta)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrPostNotFound
			}
			return fmt.Errorf("error updating vote count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Debug(ctx, "vote cast", "post", postID, "user", userID, "vote", voteType.String(), "count", count)
	return nil
}

// currentVote returns the latest vote of userID on postID, or zero.
func currentVote(ctx context.Context, repo votes.Repository, postID, userID string) (models.VoteType, error) {
	latest, err := repo.FindLatest(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return latest.VoteType, nil
}
