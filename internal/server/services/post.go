package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/auth"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
	"github.com/dustin/go-humanize"
)

type PostRequest struct {
	SubredditName string `json:"subredditName" validate:"required"`
	PostName      string `json:"postName" validate:"required,max=300"`
	URL           string `json:"url" validate:"omitempty,url"`
	Description   string `json:"description" validate:"max=10000"`
}

type PostUpdateRequest struct {
	PostName    string `json:"postName" validate:"required,max=300"`
	URL         string `json:"url" validate:"omitempty,url"`
	Description string `json:"description" validate:"max=10000"`
}

type PostResponse struct {
	ID            string `json:"id"`
	PostName      string `json:"postName"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	UserName      string `json:"userName"`
	SubredditName string `json:"subredditName"`
	VoteCount     int    `json:"voteCount"`
	CommentCount  int    `json:"commentCount"`
	Duration      string `json:"duration"`
	UpVote        bool   `json:"upVote"`
	DownVote      bool   `json:"downVote"`
}

type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *PostService {
	return &PostService{db: db, repomanager: m, log: log.With("module", "posts"), now: time.Now}
}

// Create stores a post by the current identity in the named subreddit.
func (s *PostService) Create(ctx context.Context, req PostRequest) (*PostResponse, error) {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	sr, err := s.repomanager.Subreddits(s.db).GetByName(ctx, req.SubredditName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSubredditNotFound
		}
		return nil, fmt.Errorf("error loading subreddit: %w", err)
	}

	p, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		Name:        req.PostName,
		URL:         req.URL,
		Description: req.Description,
		UserID:      user.ID,
		SubredditID: sr.ID,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: post %q", common.ErrorAlreadyExists, req.PostName)
		}
		return nil, fmt.Errorf("error creating post: %w", err)
	}
	p.UserName = user.UserName
	p.SubredditName = sr.Name

	s.log.Info(ctx, "post created", "id", p.ID, "subreddit", sr.Name, "by", user.UserName)
	return s.response(ctx, p), nil
}

// Update edits a post. Only its author may do so.
func (s *PostService) Update(ctx context.Context, id string, req PostUpdateRequest) (*PostResponse, error) {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	repo := s.repomanager.Posts(s.db)
	p, err := s.ownedPost(ctx, repo.GetByID, id, user)
	if err != nil {
		return nil, err
	}

	p.Name, p.URL, p.Description = req.PostName, req.URL, req.Description
	if err := repo.Update(ctx, p); err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.ErrPostNotFound
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, fmt.Errorf("%w: post %q", common.ErrorAlreadyExists, req.PostName)
		}
		return nil, fmt.Errorf("error updating post: %w", err)
	}
	return s.response(ctx, p), nil
}

// Delete removes a post with its comments and votes. Only its author may do so.
// The post row stays locked for the whole transaction, so a vote or comment
// racing the delete either lands before it and is removed with the post, or
// waits and then fails with common.ErrPostNotFound.
func (s *PostService) Delete(ctx context.Context, id string) error {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	var removedVotes, removedComments int64
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)
		if _, err := s.ownedPost(ctx, repo.LockByID, id, user); err != nil {
			return err
		}

		var err error
		if removedComments, err = s.repomanager.Comments(tx).DeleteByPost(ctx, id); err != nil {
			return fmt.Errorf("error deleting comments: %w", err)
		}
		if removedVotes, err = s.repomanager.Votes(tx).DeleteByPost(ctx, id); err != nil {
			return fmt.Errorf("error deleting votes: %w", err)
		}
		if err := repo.Delete(ctx, id); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrPostNotFound
			}
			return fmt.Errorf("error deleting post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "post deleted", "id", id, "comments", removedComments, "votes", removedVotes)
	return nil
}

func (s *PostService) Get(ctx context.Context, id string) (*PostResponse, error) {
	p, err := s.repomanager.Posts(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	return s.response(ctx, p), nil
}

func (s *PostService) List(ctx context.Context) ([]*PostResponse, error) {
	list, err := s.repomanager.Posts(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return s.responses(ctx, list), nil
}

func (s *PostService) ListBySubreddit(ctx context.Context, subredditID string) ([]*PostResponse, error) {
	if _, err := s.repomanager.Subreddits(s.db).GetByID(ctx, subredditID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSubredditNotFound
		}
		return nil, fmt.Errorf("error loading subreddit: %w", err)
	}
	list, err := s.repomanager.Posts(s.db).ListBySubreddit(ctx, subredditID)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return s.responses(ctx, list), nil
}

func (s *PostService) ListByUsername(ctx context.Context, username string) ([]*PostResponse, error) {
	if _, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user %q", common.ErrorNotFound, username)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	list, err := s.repomanager.Posts(s.db).ListByUserName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return s.responses(ctx, list), nil
}

func (s *PostService) ownedPost(ctx context.Context, load func(context.Context, string) (*models.Post, error), id string, user *models.User) (*models.Post, error) {
	p, err := load(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	if p.UserID != user.ID {
		return nil, common.ErrorForbidden
	}
	return p, nil
}

func (s *PostService) responses(ctx context.Context, list []*models.Post) []*PostResponse {
	out := make([]*PostResponse, 0, len(list))
	for _, p := range list {
		out = append(out, s.response(ctx, p))
	}
	return out
}

// response maps p and, for an authenticated caller, fills the vote flags
// from their latest vote. Flag lookup errors are logged and leave both false.
func (s *PostService) response(ctx context.Context, p *models.Post) *PostResponse {
	r := &PostResponse{
		ID:            p.ID,
		PostName:      p.Name,
		URL:           p.URL,
		Description:   p.Description,
		UserName:      p.UserName,
		SubredditName: p.SubredditName,
		VoteCount:     p.VoteCount,
		CommentCount:  p.CommentCount,
		Duration:      humanize.RelTime(p.CreatedAt, s.now(), "ago", "from now"),
	}

	user, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return r
	}
	vt, err := currentVote(ctx, s.repomanager.Votes(s.db), p.ID, user.ID)
	if err != nil {
		s.log.Warn(ctx, "vote flags unavailable", "post", p.ID, "error", err)
		return r
	}
	r.UpVote = vt == models.UpVote
	r.DownVote = vt == models.DownVote
	return r
}
