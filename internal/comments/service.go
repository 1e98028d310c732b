package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/models"
)

var (
	// ErrAuthRequired rejects a write with no authenticated viewer
	ErrAuthRequired = errors.New("authentication required")
	// ErrEmptyContent rejects a blank comment body
	ErrEmptyContent = errors.New("comment content is empty")
	// ErrNotFound is returned for an unknown comment id
	ErrNotFound = errors.New("comment not found")
	// ErrNotAuthor rejects deletion by anyone but the comment's author
	ErrNotAuthor = errors.New("only the comment author may delete it")
)

// Repository is the comment store surface the service composes
type Repository interface {
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Get(ctx context.Context, id string) (*models.Comment, error)
	Insert(ctx context.Context, params models.CreateCommentParams) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}

// Service reads comment threads and applies the author-only write rules
type Service struct {
	repo   Repository
	logger *logging.Logger
}

func NewService(repo Repository, logger *logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Thread returns the post's comments as a reply forest
func (s *Service) Thread(ctx context.Context, postID string) ([]*models.CommentNode, error) {
	flat, err := s.repo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments for post %s: %w", postID, err)
	}
	return BuildTree(flat), nil
}

// Create inserts a comment or reply by the authenticated viewer
func (s *Service) Create(ctx context.Context, viewerID, postID, content string, parentID *string) (*models.Comment, error) {
	if viewerID == "" {
		return nil, ErrAuthRequired
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	comment, err := s.repo.Insert(ctx, models.CreateCommentParams{
		PostID:          postID,
		AuthorID:        viewerID,
		Content:         content,
		ParentCommentID: parentID,
	})
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	s.logger.Debug("Comment created", logging.WithFields(map[string]interface{}{
		"post":    postID,
		"comment": comment.ID,
		"reply":   parentID != nil,
	}))

	return comment, nil
}

// Delete hard-removes a comment. Only its author may delete it; replies
// pointing at the removed row become roots on the next tree build.
func (s *Service) Delete(ctx context.Context, viewerID, commentID string) error {
	if viewerID == "" {
		return ErrAuthRequired
	}

	comment, err := s.repo.Get(ctx, commentID)
	if err != nil {
		return fmt.Errorf("load comment %s: %w", commentID, err)
	}
	if comment == nil {
		return ErrNotFound
	}
	if comment.AuthorID != viewerID {
		return ErrNotAuthor
	}

	if err := s.repo.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	return nil
}
