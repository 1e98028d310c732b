package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/campuslink/campuslink/internal/models"
)

// NormalizePost maps a raw post row into the unified feed shape.
// Total for any row the store can produce: missing optional fields
// default to empty values.
func NormalizePost(row models.PostRow) models.FeedItem {
	return models.FeedItem{
		ID:                  row.ID,
		Kind:                models.KindPost,
		Title:               row.Title,
		Content:             row.Content,
		OrganizationID:      row.OrganizationID,
		OrganizationName:    organizationName(row.OrganizationName, row.OrganizationID),
		OrganizationLogoURL: stringValue(row.OrganizationLogoURL),
		CreatedAt:           row.CreatedAt,
		Visibility:          models.Visibility(row.Visibility),
		MediaURLs:           coalesceMedia(row.MediaURLs, row.MediaURL),
		LikeCount:           row.LikeCount,
		CommentCount:        row.CommentCount,
		ViewerHasLiked:      row.ViewerHasLiked,
	}
}

// NormalizeAnnouncement maps a raw announcement row into the unified
// feed shape. Announcements are always organization-scoped, so they
// normalize as members-only.
func NormalizeAnnouncement(row models.AnnouncementRow) models.FeedItem {
	return models.FeedItem{
		ID:                  row.ID,
		Kind:                models.KindAnnouncement,
		Title:               row.Title,
		Content:             row.Content,
		OrganizationID:      row.OrganizationID,
		OrganizationName:    organizationName(row.OrganizationName, row.OrganizationID),
		OrganizationLogoURL: stringValue(row.OrganizationLogoURL),
		CreatedAt:           row.CreatedAt,
		Visibility:          models.VisibilityMembers,
	}
}

// NormalizePoll maps a raw poll row into the unified feed shape.
// TotalVotes is recomputed from the option tallies; the stored aggregate
// is never trusted. IsExpired is evaluated once against now and is not
// re-evaluated later.
func NormalizePoll(row models.PollRow, now time.Time) models.FeedItem {
	options := make([]models.PollOption, 0, len(row.Options))
	total := 0
	for _, opt := range row.Options {
		options = append(options, models.PollOption{
			ID:        opt.ID,
			Label:     opt.Label,
			VoteCount: opt.VoteCount,
		})
		total += opt.VoteCount
	}

	selected := row.ViewerSelectedOptionIDs
	if selected == nil {
		selected = []string{}
	}

	expired := false
	if row.ExpiresAt != nil {
		expired = now.After(*row.ExpiresAt)
	}

	return models.FeedItem{
		ID:                      row.ID,
		Kind:                    models.KindPoll,
		Title:                   row.Question,
		Content:                 row.Question,
		OrganizationID:          row.OrganizationID,
		OrganizationName:        organizationName(row.OrganizationName, row.OrganizationID),
		OrganizationLogoURL:     stringValue(row.OrganizationLogoURL),
		CreatedAt:               row.CreatedAt,
		Visibility:              models.Visibility(row.Visibility),
		Options:                 options,
		TotalVotes:              total,
		ExpiresAt:               row.ExpiresAt,
		AllowMultipleSelections: row.AllowMultipleSelections,
		ViewerSelectedOptionIDs: selected,
		IsExpired:               expired,
	}
}

// coalesceMedia prefers the array column, dropping blank entries; when
// it is absent the legacy singular column is wrapped as a one-element
// slice. The result is never nil.
func coalesceMedia(urls []string, single *string) []string {
	if len(urls) > 0 {
		out := make([]string, 0, len(urls))
		for _, u := range urls {
			if strings.TrimSpace(u) == "" {
				continue
			}
			out = append(out, u)
		}
		if len(out) > 0 {
			return out
		}
	}
	if single != nil && strings.TrimSpace(*single) != "" {
		return []string{*single}
	}
	return []string{}
}

// organizationName falls back to a synthetic display name when the
// joined org record is unavailable.
func organizationName(name *string, orgID string) string {
	if name != nil && strings.TrimSpace(*name) != "" {
		return *name
	}
	return fmt.Sprintf("Organization %s", orgID)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
