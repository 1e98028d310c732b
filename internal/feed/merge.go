package feed

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/campuslink/campuslink/internal/models"
)

// Merge concatenates the three normalized source lists into one stream
// ordered by the requested sort mode. The sort is stable, so ties keep
// the sources' own most-recent-first fetch order. Merging the same
// inputs twice yields the same sequence.
func Merge(posts, announcements, polls []models.FeedItem, sortMode string) []models.FeedItem {
	merged := make([]models.FeedItem, 0, len(posts)+len(announcements)+len(polls))
	merged = append(merged, posts...)
	merged = append(merged, announcements...)
	merged = append(merged, polls...)

	sortItems(merged, sortMode)
	return merged
}

// sortItems orders items in place. Time mode sorts createdAt descending;
// rows with a zero (unparsable) timestamp land at the end because the
// zero time precedes everything. Likes mode sorts likeCount descending,
// with kinds that have no like concept counting as zero.
func sortItems(items []models.FeedItem, sortMode string) {
	switch sortMode {
	case models.SortLikes:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].LikeCount > items[j].LikeCount
		})
	default: // newest
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

// Search keeps items whose title, content, or organization name
// contains the query, using Unicode case folding. An empty query keeps
// everything.
func Search(items []models.FeedItem, query string) []models.FeedItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	fold := cases.Fold()
	needle := fold.String(query)

	out := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if strings.Contains(fold.String(item.Title), needle) ||
			strings.Contains(fold.String(item.Content), needle) ||
			strings.Contains(fold.String(item.OrganizationName), needle) {
			out = append(out, item)
		}
	}
	return out
}

// FilterTab applies the feed tab: announcements keeps announcements
// only, posts keeps posts and polls, anything else passes everything.
func FilterTab(items []models.FeedItem, tab string) []models.FeedItem {
	switch tab {
	case models.TabAnnouncements:
		return filterKinds(items, models.KindAnnouncement)
	case models.TabPosts:
		return filterKinds(items, models.KindPost, models.KindPoll)
	default:
		return items
	}
}

func filterKinds(items []models.FeedItem, kinds ...models.Kind) []models.FeedItem {
	keep := make(map[models.Kind]bool, len(kinds))
	for _, k := range kinds {
		keep[k] = true
	}

	out := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if keep[item.Kind] {
			out = append(out, item)
		}
	}
	return out
}

// paginate slices items by limit/offset; limit <= 0 returns everything
func paginate(items []models.FeedItem, limit, offset int) []models.FeedItem {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return []models.FeedItem{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
