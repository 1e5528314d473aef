package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/auth"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/repomanager"
)

const commentText = "%s posted a comment on your post:\n\n> %s\n\n%s/api/posts/%s"

type CommentsDto struct {
	ID          string    `json:"id"`
	PostID      string    `json:"postId" validate:"required"`
	CreatedDate time.Time `json:"createdDate"`
	Text        string    `json:"text" validate:"required,max=10000"`
	UserName    string    `json:"userName"`
}

func commentDto(c *models.Comment) *CommentsDto {
	return &CommentsDto{
		ID:          c.ID,
		PostID:      c.PostID,
		CreatedDate: c.CreatedAt,
		Text:        c.Text,
		UserName:    c.UserName,
	}
}

type CommentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    *Notifier
	baseURL     string
	log         logging.Logger
}

func NewCommentService(db *sql.DB, m repomanager.RepositoryManager, notifier *Notifier, baseURL string, log logging.Logger) *CommentService {
	return &CommentService{
		db:          db,
		repomanager: m,
		notifier:    notifier,
		baseURL:     baseURL,
		log:         log.With("module", "comments"),
	}
}

// Create adds a comment by the current identity and notifies the post author,
// unless the author is the commenter.
func (s *CommentService) Create(ctx context.Context, req CommentsDto) (*CommentsDto, error) {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if err := Validate(req); err != nil {
		return nil, err
	}

	post, err := s.repomanager.Posts(s.db).GetByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}

	c, err := s.repomanager.Comments(s.db).Create(ctx, &models.Comment{
		Text:   req.Text,
		PostID: post.ID,
		UserID: user.ID,
	})
	if err != nil {
		if errors.Is(err, common.ErrPostNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating comment: %w", err)
	}
	c.UserName = user.UserName

	if post.UserID != user.ID {
		s.notifyAuthor(ctx, post, user, c)
	}
	return commentDto(c), nil
}

func (s *CommentService) notifyAuthor(ctx context.Context, post *models.Post, commenter *models.User, c *models.Comment) {
	author, err := s.repomanager.Users(s.db).GetByID(ctx, post.UserID)
	if err != nil {
		s.log.Warn(ctx, "post author lookup failed", "post", post.ID, "error", err)
		return
	}
	s.notifier.Notify(ctx, author.Email,
		commenter.UserName+" commented on your post",
		fmt.Sprintf(commentText, commenter.UserName, c.Text, s.baseURL, post.ID))
}

func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]*CommentsDto, error) {
	if _, err := s.repomanager.Posts(s.db).GetByID(ctx, postID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, fmt.Errorf("error loading post: %w", err)
	}
	list, err := s.repomanager.Comments(s.db).ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	return commentDtos(list), nil
}

func (s *CommentService) ListByUsername(ctx context.Context, username string) ([]*CommentsDto, error) {
	if _, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user %q", common.ErrorNotFound, username)
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	list, err := s.repomanager.Comments(s.db).ListByUserName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	return commentDtos(list), nil
}

// Delete removes a comment. Only its author may do so.
func (s *CommentService) Delete(ctx context.Context, id string) error {
	user, err := auth.CurrentIdentity(ctx)
	if err != nil {
		return err
	}

	repo := s.repomanager.Comments(s.db)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrCommentNotFound
		}
		return fmt.Errorf("error loading comment: %w", err)
	}
	if c.UserID != user.ID {
		return common.ErrorForbidden
	}
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrCommentNotFound
		}
		return fmt.Errorf("error deleting comment: %w", err)
	}
	return nil
}

func commentDtos(list []*models.Comment) []*CommentsDto {
	out := make([]*CommentsDto, 0, len(list))
	for _, c := range list {
		out = append(out, commentDto(c))
	}
	return out
}
