package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/campuslink/campuslink/internal/poll"
)

// BallotStore implements poll.BallotRepository on Postgres. The replace
// sequence the engine drives runs as individual statements; there is no
// cross-row transaction, which is why the engine documents its
// partial-failure semantics.
type BallotStore struct {
	db *DB
}

func NewBallotStore(db *DB) *BallotStore {
	return &BallotStore{db: db}
}

// Poll returns the validation slice of a poll, or nil when it does not
// exist.
func (s *BallotStore) Poll(ctx context.Context, pollID string) (*poll.PollInfo, error) {
	info := &poll.PollInfo{ID: pollID}

	err := s.db.QueryRowContext(ctx, `
		SELECT allow_multiple_selections FROM polls WHERE id::text = $1
	`, pollID).Scan(&info.AllowMultipleSelections)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query poll: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM poll_options WHERE poll_id::text = $1 ORDER BY position, id
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan option id: %w", err)
		}
		info.OptionIDs = append(info.OptionIDs, id)
	}
	return info, rows.Err()
}

// ViewerSelections returns the option ids of the viewer's current ballot
func (s *BallotStore) ViewerSelections(ctx context.Context, pollID, viewerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT option_id FROM poll_votes
		WHERE poll_id::text = $1 AND user_id::text = $2
		ORDER BY created_at
	`, pollID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("query viewer selections: %w", err)
	}
	defer rows.Close()

	selections := make([]string, 0)
	for rows.Next() {
		var optionID string
		if err := rows.Scan(&optionID); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		selections = append(selections, optionID)
	}
	return selections, rows.Err()
}

// DeleteSelections removes the viewer's entire ballot on a poll
func (s *BallotStore) DeleteSelections(ctx context.Context, pollID, viewerID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM poll_votes WHERE poll_id::text = $1 AND user_id::text = $2
	`, pollID, viewerID)
	if err != nil {
		return fmt.Errorf("delete selections: %w", err)
	}
	return nil
}

// InsertSelection records one (viewer, poll, option) row. The unique
// constraint makes a retried insert a no-op.
func (s *BallotStore) InsertSelection(ctx context.Context, pollID, optionID, viewerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO poll_votes (id, poll_id, option_id, user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (poll_id, option_id, user_id) DO NOTHING
	`, uuid.NewString(), pollID, optionID, viewerID)
	if err != nil {
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

// AdjustOptionCount shifts a stored tally by delta, floored at zero
func (s *BallotStore) AdjustOptionCount(ctx context.Context, optionID string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE poll_options SET vote_count = GREATEST(0, vote_count + $2) WHERE id::text = $1
	`, optionID, delta)
	if err != nil {
		return fmt.Errorf("adjust option count: %w", err)
	}
	return nil
}

// OptionCounts returns the stored tally of every option on a poll
func (s *BallotStore) OptionCounts(ctx context.Context, pollID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vote_count FROM poll_options WHERE poll_id::text = $1
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("query option counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan option count: %w", err)
		}
		counts[id] = count
	}
	return counts, rows.Err()
}

var _ poll.BallotRepository = (*BallotStore)(nil)
