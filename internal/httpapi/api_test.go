package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/comments"
	"github.com/campuslink/campuslink/internal/feed"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/poll"
	"github.com/campuslink/campuslink/internal/testutil"
)

type fakeFeedService struct {
	gotViewerID string
	gotScope    models.Scope
	gotParams   models.FilterParams
	response    models.FeedResponse
	err         error
}

func (f *fakeFeedService) Feed(ctx context.Context, viewerID string, scope models.Scope, params models.FilterParams) (models.FeedResponse, error) {
	f.gotViewerID = viewerID
	f.gotScope = scope
	f.gotParams = params
	return f.response, f.err
}

type fakeVoteSubmitter struct {
	result *poll.BallotResult
	err    error
}

func (f *fakeVoteSubmitter) SubmitVote(ctx context.Context, pollID string, optionIDs []string, viewerID string) (*poll.BallotResult, error) {
	return f.result, f.err
}

type fakeCommentService struct {
	thread    []*models.CommentNode
	created   *models.Comment
	createErr error
	deleteErr error
}

func (f *fakeCommentService) Thread(ctx context.Context, postID string) ([]*models.CommentNode, error) {
	return f.thread, nil
}

func (f *fakeCommentService) Create(ctx context.Context, viewerID, postID, content string, parentID *string) (*models.Comment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.created, nil
}

func (f *fakeCommentService) Delete(ctx context.Context, viewerID, commentID string) error {
	return f.deleteErr
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate() { f.calls++ }

func newTestMiddleware(t *testing.T) (*auth.Middleware, string) {
	t.Helper()
	verifier := auth.NewVerifier("test-secret", "campuslink", "campuslink-users")
	token, err := verifier.Issue("viewer-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return auth.NewMiddleware(verifier), token
}

func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

func TestFeedEndpoint(t *testing.T) {
	middleware, token := newTestMiddleware(t)
	svc := &fakeFeedService{
		response: models.FeedResponse{
			Items:      []models.FeedItem{{ID: "1", Kind: models.KindPost}},
			TotalCount: 1,
			FetchedAt:  time.Now(),
		},
	}
	api := NewFeedAPI(svc, middleware, testutil.NullLogger())
	mux := http.NewServeMux()
	api.RegisterRoutes(mux, passthrough)

	t.Run("anonymous request succeeds", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/feed?tab=posts&sort=likes&q=robotics&limit=10&offset=5", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if svc.gotViewerID != "" {
			t.Errorf("expected anonymous viewer, got %q", svc.gotViewerID)
		}
		if svc.gotParams.Tab != "posts" || svc.gotParams.Sort != "likes" || svc.gotParams.Query != "robotics" {
			t.Errorf("query params not forwarded: %+v", svc.gotParams)
		}
		if svc.gotParams.Limit != 10 || svc.gotParams.Offset != 5 {
			t.Errorf("pagination not forwarded: %+v", svc.gotParams)
		}

		var resp models.FeedResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.TotalCount != 1 {
			t.Errorf("expected totalCount 1, got %d", resp.TotalCount)
		}
	})

	t.Run("authenticated viewer forwarded", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/feed?scope=viewerOrgs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if svc.gotViewerID != "viewer-1" {
			t.Errorf("expected viewer-1, got %q", svc.gotViewerID)
		}
		if svc.gotScope != models.ScopeViewerOrgs {
			t.Errorf("expected viewerOrgs scope, got %s", svc.gotScope)
		}
	})

	t.Run("all sources down yields 503", func(t *testing.T) {
		svc.err = feed.ErrAllSourcesFailed
		defer func() { svc.err = nil }()

		req := httptest.NewRequest("GET", "/api/feed", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("wrong method rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/feed", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestVoteEndpoint(t *testing.T) {
	middleware, token := newTestMiddleware(t)

	newMux := func(engine *fakeVoteSubmitter, feeds *fakeInvalidator) *http.ServeMux {
		api := NewPollAPI(engine, feeds, middleware, testutil.NullLogger())
		mux := http.NewServeMux()
		api.RegisterRoutes(mux, passthrough)
		return mux
	}

	vote := func(mux *http.ServeMux, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	t.Run("successful vote invalidates feed cache", func(t *testing.T) {
		engine := &fakeVoteSubmitter{result: &poll.BallotResult{
			Status:       poll.StatusCreated,
			TotalVotes:   4,
			OptionCounts: map[string]int{"o1": 4},
			Selected:     []string{"o1"},
		}}
		feeds := &fakeInvalidator{}
		mux := newMux(engine, feeds)

		rec := vote(mux, "/api/polls/poll-1/votes", `{"optionIds":["o1"]}`, token)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if feeds.calls != 1 {
			t.Errorf("expected 1 cache invalidation, got %d", feeds.calls)
		}

		var result poll.BallotResult
		if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if result.TotalVotes != 4 || result.Status != poll.StatusCreated {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("missing token rejected before the engine", func(t *testing.T) {
		feeds := &fakeInvalidator{}
		mux := newMux(&fakeVoteSubmitter{}, feeds)

		rec := vote(mux, "/api/polls/poll-1/votes", `{"optionIds":["o1"]}`, "")

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if feeds.calls != 0 {
			t.Error("failed vote must not invalidate the cache")
		}
	})

	t.Run("engine errors map to status codes", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"invalid ballot", poll.ErrInvalidBallot, http.StatusBadRequest},
			{"unknown poll", poll.ErrPollNotFound, http.StatusNotFound},
			{"auth required", poll.ErrAuthRequired, http.StatusUnauthorized},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mux := newMux(&fakeVoteSubmitter{err: tt.err}, &fakeInvalidator{})
				rec := vote(mux, "/api/polls/poll-1/votes", `{"optionIds":["o1"]}`, token)
				if rec.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, rec.Code)
				}
			})
		}
	})

	t.Run("malformed path rejected", func(t *testing.T) {
		mux := newMux(&fakeVoteSubmitter{}, &fakeInvalidator{})
		rec := vote(mux, "/api/polls/poll-1/ballots", `{}`, token)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCommentEndpoints(t *testing.T) {
	middleware, token := newTestMiddleware(t)

	newMux := func(svc *fakeCommentService, feeds *fakeInvalidator) *http.ServeMux {
		api := NewCommentAPI(svc, feeds, middleware, testutil.NullLogger())
		mux := http.NewServeMux()
		api.RegisterRoutes(mux, passthrough)
		return mux
	}

	t.Run("thread readable anonymously", func(t *testing.T) {
		svc := &fakeCommentService{thread: []*models.CommentNode{
			{Comment: models.Comment{ID: "c1", Content: "hello"}, Replies: []*models.CommentNode{}},
		}}
		mux := newMux(svc, &fakeInvalidator{})

		req := httptest.NewRequest("GET", "/api/posts/post-1/comments", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			PostID   string                `json:"postId"`
			Comments []*models.CommentNode `json:"comments"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.PostID != "post-1" || len(resp.Comments) != 1 {
			t.Errorf("unexpected response: %+v", resp)
		}
	})

	t.Run("create returns 201 and invalidates feed cache", func(t *testing.T) {
		svc := &fakeCommentService{created: &models.Comment{ID: "c1", PostID: "post-1", Content: "hi"}}
		feeds := &fakeInvalidator{}
		mux := newMux(svc, feeds)

		req := httptest.NewRequest("POST", "/api/posts/post-1/comments", strings.NewReader(`{"content":"hi"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if feeds.calls != 1 {
			t.Errorf("expected 1 cache invalidation, got %d", feeds.calls)
		}
	})

	t.Run("anonymous create rejected", func(t *testing.T) {
		svc := &fakeCommentService{createErr: comments.ErrAuthRequired}
		mux := newMux(svc, &fakeInvalidator{})

		req := httptest.NewRequest("POST", "/api/posts/post-1/comments", strings.NewReader(`{"content":"hi"}`))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("empty content rejected", func(t *testing.T) {
		svc := &fakeCommentService{createErr: comments.ErrEmptyContent}
		mux := newMux(svc, &fakeInvalidator{})

		req := httptest.NewRequest("POST", "/api/posts/post-1/comments", strings.NewReader(`{"content":""}`))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete error mapping", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"not found", comments.ErrNotFound, http.StatusNotFound},
			{"not the author", comments.ErrNotAuthor, http.StatusForbidden},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mux := newMux(&fakeCommentService{deleteErr: tt.err}, &fakeInvalidator{})

				req := httptest.NewRequest("DELETE", "/api/comments/c1", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)

				if rec.Code != tt.want {
					t.Errorf("expected %d, got %d", tt.want, rec.Code)
				}
			})
		}
	})

	t.Run("successful delete invalidates feed cache", func(t *testing.T) {
		feeds := &fakeInvalidator{}
		mux := newMux(&fakeCommentService{}, feeds)

		req := httptest.NewRequest("DELETE", "/api/comments/c1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if feeds.calls != 1 {
			t.Errorf("expected 1 cache invalidation, got %d", feeds.calls)
		}
	})
}
