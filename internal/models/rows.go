package models

import "time"

// Raw row shapes as the stores return them, before normalization.
// Optional joined columns are pointers so a missing organization record
// stays distinguishable from an empty one.

// PostRow is a raw post row with its joined organization columns.
// MediaURLs is the current array column; MediaURL is the legacy singular
// column that predates it. Normalization coalesces the two.
type PostRow struct {
	ID                  string
	OrganizationID      string
	OrganizationName    *string
	OrganizationLogoURL *string
	Title               string
	Content             string
	Visibility          string
	MediaURLs           []string
	MediaURL            *string
	LikeCount           int
	CommentCount        int
	ViewerHasLiked      bool
	CreatedAt           time.Time
}

// AnnouncementRow is a raw announcement row. Announcements are fetched
// org-scoped, so no visibility column travels with them.
type AnnouncementRow struct {
	ID                  string
	OrganizationID      string
	OrganizationName    *string
	OrganizationLogoURL *string
	Title               string
	Content             string
	CreatedAt           time.Time
}

// PollOptionRow is one stored poll option with its stored tally
type PollOptionRow struct {
	ID        string
	Label     string
	VoteCount int
}

// PollRow is a raw poll row with its options and the viewer's own
// prior selections.
type PollRow struct {
	ID                      string
	OrganizationID          string
	OrganizationName        *string
	OrganizationLogoURL     *string
	Question                string
	Visibility              string
	ExpiresAt               *time.Time
	AllowMultipleSelections bool
	Options                 []PollOptionRow
	ViewerSelectedOptionIDs []string
	CreatedAt               time.Time
}

// OrganizationFeed pairs an organization with its registered external
// feed, consumed by the announcement importer.
type OrganizationFeed struct {
	OrganizationID string
	FeedURL        string
}

// AnnouncementUpsert is one imported entry destined for the
// announcements table, keyed by source GUID.
type AnnouncementUpsert struct {
	OrganizationID string
	SourceGUID     string
	Title          string
	Content        string
	PublishedAt    time.Time
}
