package models

import "time"

// Comment is one flat comment row. ParentCommentID is nil for top-level
// comments. Author columns come joined from the users table.
type Comment struct {
	ID              string    `json:"id"`
	PostID          string    `json:"postId"`
	AuthorID        string    `json:"authorId"`
	AuthorName      string    `json:"authorName,omitempty"`
	AuthorAvatarURL string    `json:"authorAvatarUrl,omitempty"`
	Content         string    `json:"content"`
	ParentCommentID *string   `json:"parentCommentId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CommentNode is a comment with its direct replies, ordered oldest first
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}

// CreateCommentParams carries a new comment into the store
type CreateCommentParams struct {
	PostID          string
	AuthorID        string
	Content         string
	ParentCommentID *string
}
