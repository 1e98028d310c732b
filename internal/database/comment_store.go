package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink/internal/models"
)

// CommentStore persists flat comment rows. Tree shape is reconstructed
// at read time by the comments package.
type CommentStore struct {
	db *DB
}

func NewCommentStore(db *DB) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `
	c.id, c.post_id, c.user_id, u.display_name, u.avatar_url,
	c.content, c.parent_comment_id, c.created_at
`

// ListByPost returns a post's comments oldest first with joined author
// columns, the order the tree builder expects.
func (s *CommentStore) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.post_id::text = $1
		ORDER BY c.created_at ASC, c.id ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]models.Comment, 0)
	for rows.Next() {
		comment, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

// Get returns one comment, or nil when it does not exist
func (s *CommentStore) Get(ctx context.Context, id string) (*models.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+commentColumns+`
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.id::text = $1
	`, id)

	comment, err := scanComment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return comment, err
}

// Insert stores a new comment row and returns it with joined author data
func (s *CommentStore) Insert(ctx context.Context, params models.CreateCommentParams) (*models.Comment, error) {
	id := uuid.NewString()

	var parent sql.NullString
	if params.ParentCommentID != nil {
		parent = sql.NullString{String: *params.ParentCommentID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, post_id, user_id, content, parent_comment_id)
		VALUES ($1, $2, $3, $4, $5)
	`, id, params.PostID, params.AuthorID, params.Content, parent)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, fmt.Errorf("comment %s missing after insert", id)
	}
	return comment, nil
}

// Delete hard-removes exactly one comment row. Reply rows keep their
// parent pointer and are re-rooted on the next tree build.
func (s *CommentStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func scanComment(scan func(dest ...interface{}) error) (*models.Comment, error) {
	var comment models.Comment
	var authorName, authorAvatar, parentID sql.NullString

	if err := scan(
		&comment.ID, &comment.PostID, &comment.AuthorID, &authorName, &authorAvatar,
		&comment.Content, &parentID, &comment.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}

	if authorName.Valid {
		comment.AuthorName = authorName.String
	}
	if authorAvatar.Valid {
		comment.AuthorAvatarURL = authorAvatar.String
	}
	if parentID.Valid {
		p := parentID.String
		comment.ParentCommentID = &p
	}

	return &comment, nil
}
