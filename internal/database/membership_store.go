package database

import (
	"context"
	"fmt"
)

// MembershipStore resolves organization memberships
type MembershipStore struct {
	db *DB
}

func NewMembershipStore(db *DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// ViewerOrganizationIDs returns the ids of the organizations the user
// is an active member of.
func (s *MembershipStore) ViewerOrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT organization_id FROM org_members
		WHERE user_id::text = $1 AND status = 'active'
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
