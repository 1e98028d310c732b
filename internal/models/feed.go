package models

import "time"

// Kind identifies the content type of a feed item
type Kind string

const (
	KindPost         Kind = "post"
	KindAnnouncement Kind = "announcement"
	KindPoll         Kind = "poll"
)

// Visibility controls who may see a content item
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityMembers Visibility = "members"
)

// Scope selects which organizations a fetch covers
type Scope string

const (
	ScopeAll        Scope = "all"
	ScopeViewerOrgs Scope = "viewerOrgs"
)

// PollOption is one answer choice of a poll with its current tally
type PollOption struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	VoteCount int    `json:"voteCount"`
}

// FeedItem is the unified shape every content type normalizes into.
// CreatedAt is the authoritative sort key and always carries the source
// row's creation time.
type FeedItem struct {
	ID                  string     `json:"id"`
	Kind                Kind       `json:"kind"`
	Title               string     `json:"title"`
	Content             string     `json:"content"`
	OrganizationID      string     `json:"organizationId"`
	OrganizationName    string     `json:"organizationName"`
	OrganizationLogoURL string     `json:"organizationLogoUrl,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	Visibility          Visibility `json:"visibility"`

	// Post-only fields
	MediaURLs      []string `json:"mediaUrls,omitempty"`
	LikeCount      int      `json:"likeCount"`
	CommentCount   int      `json:"commentCount"`
	ViewerHasLiked bool     `json:"viewerHasLiked"`

	// Poll-only fields. TotalVotes is always recomputed from the option
	// tallies during normalization, never read from a stored column.
	// IsExpired is a point-in-time snapshot taken when the item was
	// normalized.
	Options                 []PollOption `json:"options,omitempty"`
	TotalVotes              int          `json:"totalVotes,omitempty"`
	ExpiresAt               *time.Time   `json:"expiresAt,omitempty"`
	AllowMultipleSelections bool         `json:"allowMultipleSelections,omitempty"`
	ViewerSelectedOptionIDs []string     `json:"viewerSelectedOptionIds,omitempty"`
	IsExpired               bool         `json:"isExpired,omitempty"`
}

// Feed tabs
const (
	TabAll           = "all"
	TabAnnouncements = "announcements"
	TabPosts         = "posts"
)

// Feed sort modes
const (
	SortNewest = "newest"
	SortLikes  = "likes"
)

// FilterParams are the merged-feed query parameters
type FilterParams struct {
	Tab    string `json:"tab"`
	Sort   string `json:"sort"`
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// FeedResponse is the paginated feed payload returned to clients
type FeedResponse struct {
	Items      []FeedItem `json:"items"`
	TotalCount int        `json:"totalCount"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}
