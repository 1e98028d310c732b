package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/comments"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/models"
)

// CommentService is the comment surface the handlers need
type CommentService interface {
	Thread(ctx context.Context, postID string) ([]*models.CommentNode, error)
	Create(ctx context.Context, viewerID, postID, content string, parentID *string) (*models.Comment, error)
	Delete(ctx context.Context, viewerID, commentID string) error
}

// CommentAPI handles comment thread endpoints
type CommentAPI struct {
	svc            CommentService
	feeds          FeedInvalidator
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

func NewCommentAPI(svc CommentService, feeds FeedInvalidator, authMiddleware *auth.Middleware, logger *logging.Logger) *CommentAPI {
	return &CommentAPI{
		svc:            svc,
		feeds:          feeds,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers comment routes on the given mux
func (api *CommentAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/posts/", corsMiddleware(api.authMiddleware.OptionalAuth(api.handlePostComments)))
	mux.HandleFunc("/api/comments/", corsMiddleware(api.authMiddleware.RequireAuth(api.handleDeleteComment)))
}

// handlePostComments handles GET/POST /api/posts/{id}/comments
func (api *CommentAPI) handlePostComments(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "comments" {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid path")
		return
	}
	postID := parts[0]

	switch r.Method {
	case http.MethodGet:
		api.getThread(w, r, postID)
	case http.MethodPost:
		api.createComment(w, r, postID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *CommentAPI) getThread(w http.ResponseWriter, r *http.Request, postID string) {
	thread, err := api.svc.Thread(r.Context(), postID)
	if err != nil {
		api.logger.Error("Failed to load comment thread", logging.WithFields(map[string]interface{}{
			"post":  postID,
			"error": err.Error(),
		}))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load comments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"postId":   postID,
		"comments": thread,
	})
}

func (api *CommentAPI) createComment(w http.ResponseWriter, r *http.Request, postID string) {
	var body struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	comment, err := api.svc.Create(r.Context(), viewerID(r), postID, body.Content, body.ParentID)
	if err != nil {
		switch {
		case errors.Is(err, comments.ErrAuthRequired):
			writeError(w, http.StatusUnauthorized, "auth_required", "you must be signed in to comment")
		case errors.Is(err, comments.ErrEmptyContent):
			writeError(w, http.StatusBadRequest, "invalid_request", "comment content is required")
		default:
			api.logger.Error("Failed to create comment", logging.WithFields(map[string]interface{}{
				"post":  postID,
				"error": err.Error(),
			}))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to create comment")
		}
		return
	}

	if api.feeds != nil {
		api.feeds.Invalidate()
	}

	writeJSON(w, http.StatusCreated, comment)
}

// handleDeleteComment handles DELETE /api/comments/{id}
func (api *CommentAPI) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	commentID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/comments/"), "/")
	if commentID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "comment ID required")
		return
	}

	if err := api.svc.Delete(r.Context(), viewerID(r), commentID); err != nil {
		switch {
		case errors.Is(err, comments.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "comment not found")
		case errors.Is(err, comments.ErrNotAuthor):
			writeError(w, http.StatusForbidden, "forbidden", "only the comment author may delete it")
		case errors.Is(err, comments.ErrAuthRequired):
			writeError(w, http.StatusUnauthorized, "auth_required", "you must be signed in")
		default:
			api.logger.Error("Failed to delete comment", logging.WithFields(map[string]interface{}{
				"comment": commentID,
				"error":   err.Error(),
			}))
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete comment")
		}
		return
	}

	if api.feeds != nil {
		api.feeds.Invalidate()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
