package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/auth"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
)

type SubredditDto struct {
	ID            string `json:"id"`
	Name          string `json:"name" validate:"required,max=100"`
	Description   string `json:"description" validate:"required,max=1000"`
	NumberOfPosts int    `json:"numberOfPosts"`
}

func subredditDto(s *models.Subreddit) *SubredditDto {
	return &SubredditDto{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		NumberOfPosts: s.NumberOfPosts,
	}
}

type SubredditService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewSubredditService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *SubredditService {
	return &SubredditService{db: db, repomanager: m, log: log.With("module", "subreddits")}
}

// Create stores a subreddit owned by the current identity.
func (s *SubredditService) Create(ctx context.Context, req SubredditDto) (*SubredditDto, error) {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	created, err := s.repomanager.Subreddits(s.db).Create(ctx, &models.Subreddit{
		Name:        req.Name,
		Description: req.Description,
		UserID:      user.ID,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: subreddit %q", common.ErrorAlreadyExists, req.Name)
		}
		return nil, fmt.Errorf("error creating subreddit: %w", err)
	}

	s.log.Info(ctx, "subreddit created", "name", created.Name, "by", user.UserName)
	return subredditDto(created), nil
}

func (s *SubredditService) List(ctx context.Context) ([]*SubredditDto, error) {
	list, err := s.repomanager.Subreddits(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing subreddits: %w", err)
	}
	out := make([]*SubredditDto, 0, len(list))
	for _, sr := range list {
		out = append(out, subredditDto(sr))
	}
	return out, nil
}

func (s *SubredditService) Get(ctx context.Context, id string) (*SubredditDto, error) {
	sr, err := s.repomanager.Subreddits(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrSubredditNotFound
		}
		return nil, fmt.Errorf("error loading subreddit: %w", err)
	}
	return subredditDto(sr), nil
}
