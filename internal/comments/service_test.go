package comments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/testutil"
)

type fakeRepo struct {
	comments map[string]models.Comment
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{comments: make(map[string]models.Comment)}
}

func (f *fakeRepo) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	out := make([]models.Comment, 0)
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *fakeRepo) Insert(ctx context.Context, params models.CreateCommentParams) (*models.Comment, error) {
	f.nextID++
	c := models.Comment{
		ID:              fmt.Sprintf("c%d", f.nextID),
		PostID:          params.PostID,
		AuthorID:        params.AuthorID,
		Content:         params.Content,
		ParentCommentID: params.ParentCommentID,
		CreatedAt:       time.Now(),
	}
	f.comments[c.ID] = c
	return &c, nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(f.comments, id)
	return nil
}

func newTestCommentService(repo Repository) *Service {
	return NewService(repo, testutil.NullLogger())
}

func TestCreateComment(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestCommentService(repo)

	got, err := svc.Create(context.Background(), "viewer-1", "post-1", "hello there", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AuthorID != "viewer-1" || got.PostID != "post-1" {
		t.Errorf("comment fields wrong: %+v", got)
	}
	if got.ParentCommentID != nil {
		t.Error("top-level comment must have no parent")
	}
}

func TestCreateCommentValidation(t *testing.T) {
	svc := newTestCommentService(newFakeRepo())

	tests := []struct {
		name     string
		viewerID string
		content  string
		wantErr  error
	}{
		{"anonymous viewer", "", "hello", ErrAuthRequired},
		{"empty content", "viewer-1", "", ErrEmptyContent},
		{"whitespace content", "viewer-1", "   \n\t", ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.viewerID, "post-1", tt.content, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDeleteCommentAuthorOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestCommentService(repo)

	created, err := svc.Create(context.Background(), "author-1", "post-1", "mine", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), "someone-else", created.ID); !errors.Is(err, ErrNotAuthor) {
		t.Errorf("expected ErrNotAuthor, got %v", err)
	}
	if err := svc.Delete(context.Background(), "", created.ID); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("expected ErrAuthRequired, got %v", err)
	}
	if err := svc.Delete(context.Background(), "author-1", created.ID); err != nil {
		t.Errorf("author delete failed: %v", err)
	}
	if err := svc.Delete(context.Background(), "author-1", created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}
}

func TestThreadRerootsRepliesOfDeletedParent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestCommentService(repo)

	parent, err := svc.Create(context.Background(), "author-1", "post-1", "parent", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reply, err := svc.Create(context.Background(), "author-2", "post-1", "reply", &parent.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), "author-1", parent.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	roots, err := svc.Thread(context.Background(), "post-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roots) != 1 {
		t.Fatalf("expected surviving reply as the only root, got %d roots", len(roots))
	}
	if roots[0].ID != reply.ID {
		t.Errorf("expected reply %s re-rooted, got %s", reply.ID, roots[0].ID)
	}
}
