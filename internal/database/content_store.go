package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/campuslink/campuslink/internal/models"
)

// ContentStore fetches the raw rows the feed is composed from and owns
// the announcements table for the RSS importer.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

// Posts returns raw post rows, most recent first, with the joined
// organization columns and the viewer's like state. Scope viewerOrgs
// restricts rows to the given organizations.
func (s *ContentStore) Posts(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PostRow, error) {
	if scope == models.ScopeViewerOrgs && len(viewerOrgIDs) == 0 {
		return []models.PostRow{}, nil
	}

	query := `
		SELECT
			p.id, p.organization_id, o.name, o.logo_url,
			p.title, p.content, p.visibility,
			p.media_urls, p.media_url, p.created_at,
			(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id),
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
			EXISTS (SELECT 1 FROM post_likes pl WHERE pl.post_id = p.id AND pl.user_id::text = $1)
		FROM posts p
		LEFT JOIN organizations o ON o.id = p.organization_id
	`
	args := []interface{}{viewerID}
	if scope == models.ScopeViewerOrgs {
		query += ` WHERE p.organization_id::text = ANY($2)`
		args = append(args, pq.Array(viewerOrgIDs))
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.PostRow, 0)
	for rows.Next() {
		var row models.PostRow
		var orgName, orgLogo, mediaURL sql.NullString
		var mediaURLs pq.StringArray

		if err := rows.Scan(
			&row.ID, &row.OrganizationID, &orgName, &orgLogo,
			&row.Title, &row.Content, &row.Visibility,
			&mediaURLs, &mediaURL, &row.CreatedAt,
			&row.LikeCount, &row.CommentCount, &row.ViewerHasLiked,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}

		if orgName.Valid {
			row.OrganizationName = &orgName.String
		}
		if orgLogo.Valid {
			row.OrganizationLogoURL = &orgLogo.String
		}
		if mediaURL.Valid {
			row.MediaURL = &mediaURL.String
		}
		row.MediaURLs = []string(mediaURLs)

		posts = append(posts, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// Announcements returns raw announcement rows for the viewer's
// organizations, most recent first. Announcements are always
// organization-scoped, so an empty membership set yields no rows.
func (s *ContentStore) Announcements(ctx context.Context, viewerOrgIDs []string) ([]models.AnnouncementRow, error) {
	if len(viewerOrgIDs) == 0 {
		return []models.AnnouncementRow{}, nil
	}

	query := `
		SELECT a.id, a.organization_id, o.name, o.logo_url, a.title, a.content, a.created_at
		FROM announcements a
		LEFT JOIN organizations o ON o.id = a.organization_id
		WHERE a.organization_id::text = ANY($1)
		ORDER BY a.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(viewerOrgIDs))
	if err != nil {
		return nil, fmt.Errorf("query announcements: %w", err)
	}
	defer rows.Close()

	announcements := make([]models.AnnouncementRow, 0)
	for rows.Next() {
		var row models.AnnouncementRow
		var orgName, orgLogo sql.NullString

		if err := rows.Scan(&row.ID, &row.OrganizationID, &orgName, &orgLogo, &row.Title, &row.Content, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		if orgName.Valid {
			row.OrganizationName = &orgName.String
		}
		if orgLogo.Valid {
			row.OrganizationLogoURL = &orgLogo.String
		}

		announcements = append(announcements, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}

	return announcements, nil
}

// Polls returns raw poll rows, most recent first, each carrying its
// options (in stored position order) and the viewer's prior selections.
func (s *ContentStore) Polls(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PollRow, error) {
	if scope == models.ScopeViewerOrgs && len(viewerOrgIDs) == 0 {
		return []models.PollRow{}, nil
	}

	query := `
		SELECT
			p.id, p.organization_id, o.name, o.logo_url,
			p.question, p.visibility, p.expires_at, p.allow_multiple_selections, p.created_at
		FROM polls p
		LEFT JOIN organizations o ON o.id = p.organization_id
	`
	args := []interface{}{}
	if scope == models.ScopeViewerOrgs {
		query += ` WHERE p.organization_id::text = ANY($1)`
		args = append(args, pq.Array(viewerOrgIDs))
	}
	query += ` ORDER BY p.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query polls: %w", err)
	}
	defer rows.Close()

	polls := make([]models.PollRow, 0)
	pollIndex := make(map[string]int)
	for rows.Next() {
		var row models.PollRow
		var orgName, orgLogo sql.NullString
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&row.ID, &row.OrganizationID, &orgName, &orgLogo,
			&row.Question, &row.Visibility, &expiresAt, &row.AllowMultipleSelections, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan poll: %w", err)
		}

		if orgName.Valid {
			row.OrganizationName = &orgName.String
		}
		if orgLogo.Valid {
			row.OrganizationLogoURL = &orgLogo.String
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			row.ExpiresAt = &t
		}
		row.Options = []models.PollOptionRow{}
		row.ViewerSelectedOptionIDs = []string{}

		pollIndex[row.ID] = len(polls)
		polls = append(polls, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate polls: %w", err)
	}

	if len(polls) == 0 {
		return polls, nil
	}

	pollIDs := make([]string, 0, len(polls))
	for _, p := range polls {
		pollIDs = append(pollIDs, p.ID)
	}

	if err := s.attachOptions(ctx, polls, pollIndex, pollIDs); err != nil {
		return nil, err
	}
	if viewerID != "" {
		if err := s.attachViewerSelections(ctx, polls, pollIndex, pollIDs, viewerID); err != nil {
			return nil, err
		}
	}

	return polls, nil
}

func (s *ContentStore) attachOptions(ctx context.Context, polls []models.PollRow, pollIndex map[string]int, pollIDs []string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT poll_id, id, label, vote_count
		FROM poll_options
		WHERE poll_id::text = ANY($1)
		ORDER BY poll_id, position, id
	`, pq.Array(pollIDs))
	if err != nil {
		return fmt.Errorf("query poll options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pollID string
		var opt models.PollOptionRow
		if err := rows.Scan(&pollID, &opt.ID, &opt.Label, &opt.VoteCount); err != nil {
			return fmt.Errorf("scan poll option: %w", err)
		}
		if i, ok := pollIndex[pollID]; ok {
			polls[i].Options = append(polls[i].Options, opt)
		}
	}
	return rows.Err()
}

func (s *ContentStore) attachViewerSelections(ctx context.Context, polls []models.PollRow, pollIndex map[string]int, pollIDs []string, viewerID string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT poll_id, option_id
		FROM poll_votes
		WHERE poll_id::text = ANY($1) AND user_id::text = $2
		ORDER BY created_at
	`, pq.Array(pollIDs), viewerID)
	if err != nil {
		return fmt.Errorf("query viewer selections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var pollID, optionID string
		if err := rows.Scan(&pollID, &optionID); err != nil {
			return fmt.Errorf("scan viewer selection: %w", err)
		}
		if i, ok := pollIndex[pollID]; ok {
			polls[i].ViewerSelectedOptionIDs = append(polls[i].ViewerSelectedOptionIDs, optionID)
		}
	}
	return rows.Err()
}

// OrganizationFeeds lists organizations that registered an external
// announcement feed.
func (s *ContentStore) OrganizationFeeds(ctx context.Context) ([]models.OrganizationFeed, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, feed_url FROM organizations
		WHERE feed_url IS NOT NULL AND feed_url <> ''
	`)
	if err != nil {
		return nil, fmt.Errorf("query organization feeds: %w", err)
	}
	defer rows.Close()

	feeds := make([]models.OrganizationFeed, 0)
	for rows.Next() {
		var f models.OrganizationFeed
		if err := rows.Scan(&f.OrganizationID, &f.FeedURL); err != nil {
			return nil, fmt.Errorf("scan organization feed: %w", err)
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// UpsertAnnouncement inserts an imported entry, keyed by source GUID so
// re-importing the same feed is idempotent.
func (s *ContentStore) UpsertAnnouncement(ctx context.Context, params models.AnnouncementUpsert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (organization_id, title, content, source_guid, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (organization_id, source_guid) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content
	`, params.OrganizationID, params.Title, params.Content, nullString(params.SourceGUID), params.PublishedAt)
	if err != nil {
		return fmt.Errorf("upsert announcement %s: %w", params.SourceGUID, err)
	}
	return nil
}
