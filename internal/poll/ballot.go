package poll

import (
	"context"
	"errors"
	"fmt"

	"github.com/campuslink/campuslink/internal/logging"
)

var (
	// ErrAuthRequired rejects a vote with no authenticated viewer
	ErrAuthRequired = errors.New("authentication required to vote")
	// ErrInvalidBallot rejects a selection set that violates the poll's
	// selection rules
	ErrInvalidBallot = errors.New("invalid ballot")
	// ErrPollNotFound rejects a vote on an unknown poll
	ErrPollNotFound = errors.New("poll not found")
)

// PollInfo is the slice of poll state the engine needs for validation
type PollInfo struct {
	ID                      string
	AllowMultipleSelections bool
	OptionIDs               []string
}

// BallotRepository is the store surface the engine composes. Isolating
// the multi-step replace behind this interface lets a real transaction
// or stored procedure replace it later without touching the engine.
type BallotRepository interface {
	Poll(ctx context.Context, pollID string) (*PollInfo, error)
	ViewerSelections(ctx context.Context, pollID, viewerID string) ([]string, error)
	DeleteSelections(ctx context.Context, pollID, viewerID string) error
	InsertSelection(ctx context.Context, pollID, optionID, viewerID string) error
	AdjustOptionCount(ctx context.Context, optionID string, delta int) error
	OptionCounts(ctx context.Context, pollID string) (map[string]int, error)
}

// Ballot statuses
const (
	StatusCreated = "created"
	StatusUpdated = "updated"
)

// BallotResult reports the outcome of a vote submission. TotalVotes is
// derived from the option counts read back after the write.
type BallotResult struct {
	Status       string         `json:"status"`
	TotalVotes   int            `json:"totalVotes"`
	OptionCounts map[string]int `json:"optionCounts"`
	Selected     []string       `json:"selectedOptionIds"`
}

// Engine applies single-ballot-per-user semantics: submitting a vote
// replaces the viewer's previous selections rather than appending to
// them.
type Engine struct {
	repo   BallotRepository
	logger *logging.Logger
}

func NewEngine(repo BallotRepository, logger *logging.Logger) *Engine {
	return &Engine{repo: repo, logger: logger}
}

// SubmitVote replaces the viewer's ballot on a poll with the given
// selections and reconciles the option tallies.
//
// The replace runs as delete old selections, decrement their counts,
// insert new selections, increment their counts. The store offers no
// cross-row transaction, so a failure after the delete leaves the old
// ballot removed and the new one missing; callers must treat a failed
// submission as retry-safe, not as applied. Re-running converges.
// Concurrent voters on the same option are not serialized here and the
// increments may race; that drift is an accepted approximation.
func (e *Engine) SubmitVote(ctx context.Context, pollID string, optionIDs []string, viewerID string) (*BallotResult, error) {
	if viewerID == "" {
		return nil, ErrAuthRequired
	}

	selected := dedupe(optionIDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no options selected", ErrInvalidBallot)
	}

	info, err := e.repo.Poll(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("load poll %s: %w", pollID, err)
	}
	if info == nil {
		return nil, ErrPollNotFound
	}

	if !info.AllowMultipleSelections && len(selected) != 1 {
		return nil, fmt.Errorf("%w: poll allows exactly one selection", ErrInvalidBallot)
	}

	known := make(map[string]bool, len(info.OptionIDs))
	for _, id := range info.OptionIDs {
		known[id] = true
	}
	for _, id := range selected {
		if !known[id] {
			return nil, fmt.Errorf("%w: unknown option %s", ErrInvalidBallot, id)
		}
	}

	existing, err := e.repo.ViewerSelections(ctx, pollID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load existing selections: %w", err)
	}

	status := StatusCreated
	if len(existing) > 0 {
		status = StatusUpdated
		if err := e.repo.DeleteSelections(ctx, pollID, viewerID); err != nil {
			return nil, fmt.Errorf("delete previous selections: %w", err)
		}
		for _, optionID := range dedupe(existing) {
			if err := e.repo.AdjustOptionCount(ctx, optionID, -1); err != nil {
				return nil, fmt.Errorf("decrement option %s: %w", optionID, err)
			}
		}
	}

	for _, optionID := range selected {
		if err := e.repo.InsertSelection(ctx, pollID, optionID, viewerID); err != nil {
			return nil, fmt.Errorf("insert selection %s: %w", optionID, err)
		}
		if err := e.repo.AdjustOptionCount(ctx, optionID, 1); err != nil {
			return nil, fmt.Errorf("increment option %s: %w", optionID, err)
		}
	}

	counts, err := e.repo.OptionCounts(ctx, pollID)
	if err != nil {
		return nil, fmt.Errorf("reload option counts: %w", err)
	}
	total := 0
	for _, c := range counts {
		total += c
	}

	e.logger.Debug("Ballot recorded", logging.WithFields(map[string]interface{}{
		"poll":       pollID,
		"viewer":     viewerID,
		"selections": len(selected),
		"status":     status,
	}))

	return &BallotResult{
		Status:       status,
		TotalVotes:   total,
		OptionCounts: counts,
		Selected:     selected,
	}, nil
}

// dedupe removes repeated ids while preserving first-seen order
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
