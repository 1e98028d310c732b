package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/campuslink/campuslink/internal/auth"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/poll"
)

// VoteSubmitter is the ballot surface the handler needs
type VoteSubmitter interface {
	SubmitVote(ctx context.Context, pollID string, optionIDs []string, viewerID string) (*poll.BallotResult, error)
}

// FeedInvalidator drops cached feed snapshots after a write
type FeedInvalidator interface {
	Invalidate()
}

// PollAPI handles poll voting endpoints
type PollAPI struct {
	engine         VoteSubmitter
	feeds          FeedInvalidator
	authMiddleware *auth.Middleware
	logger         *logging.Logger
}

func NewPollAPI(engine VoteSubmitter, feeds FeedInvalidator, authMiddleware *auth.Middleware, logger *logging.Logger) *PollAPI {
	return &PollAPI{
		engine:         engine,
		feeds:          feeds,
		authMiddleware: authMiddleware,
		logger:         logger,
	}
}

// RegisterRoutes registers poll routes on the given mux
func (api *PollAPI) RegisterRoutes(mux *http.ServeMux, corsMiddleware func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("/api/polls/", corsMiddleware(api.authMiddleware.RequireAuth(api.handlePoll)))
}

// handlePoll handles POST /api/polls/{id}/votes
func (api *PollAPI) handlePoll(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/polls/")
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "votes" {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid path")
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pollID := parts[0]

	var body struct {
		OptionIDs []string `json:"optionIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	result, err := api.engine.SubmitVote(r.Context(), pollID, body.OptionIDs, viewerID(r))
	if err != nil {
		switch {
		case errors.Is(err, poll.ErrAuthRequired):
			writeError(w, http.StatusUnauthorized, "auth_required", "you must be signed in to vote")
		case errors.Is(err, poll.ErrInvalidBallot):
			writeError(w, http.StatusBadRequest, "invalid_ballot", err.Error())
		case errors.Is(err, poll.ErrPollNotFound):
			writeError(w, http.StatusNotFound, "not_found", "poll not found")
		default:
			// May have failed between removing the old ballot and writing
			// the new one; retrying converges, so say so.
			api.logger.Error("Vote submission failed", logging.WithFields(map[string]interface{}{
				"poll":  pollID,
				"error": err.Error(),
			}))
			writeError(w, http.StatusInternalServerError, "vote_failed", "vote could not be recorded, please retry")
		}
		return
	}

	if api.feeds != nil {
		api.feeds.Invalidate()
	}

	writeJSON(w, http.StatusOK, result)
}
