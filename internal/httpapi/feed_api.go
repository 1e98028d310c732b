package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/feed"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/models"
)

// FeedService is the feed surface the handler needs
type FeedService interface {
	Feed(ctx context.Context, viewerID string, scope models.Scope, params models.FilterParams) (models.FeedResponse, error)
}

// FeedAPI handles the merged-feed endpoint
type FeedAPI struct {
	svc            FeedService
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

func NewFeedAPI(svc FeedService, authMiddleware *auth.Middleware, logger *logging.Logger) *FeedAPI {
	return &FeedAPI{
		svc:            svc,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers feed routes on the given mux
func (api *FeedAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/feed", corsMiddleware(api.authMiddleware.OptionalAuth(api.handleGetFeed)))
}

// handleGetFeed handles GET /api/feed
func (api *FeedAPI) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()

	limit := 50
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	offset := 0
	if o := query.Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	scope := models.ScopeAll
	if query.Get("scope") == string(models.ScopeViewerOrgs) {
		scope = models.ScopeViewerOrgs
	}

	params := models.FilterParams{
		Tab:    query.Get("tab"),
		Sort:   query.Get("sort"),
		Query:  query.Get("q"),
		Limit:  limit,
		Offset: offset,
	}

	response, err := api.svc.Feed(r.Context(), viewerID(r), scope, params)
	if err != nil {
		if errors.Is(err, feed.ErrAllSourcesFailed) {
			writeError(w, http.StatusServiceUnavailable, "feed_unavailable", "feed is temporarily unavailable")
			return
		}
		api.logger.Error("Failed to build feed", logging.WithField("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load feed")
		return
	}

	writeJSON(w, http.StatusOK, response)
}
