package feed

import "github.com/campuslink/campuslink/internal/models"

// IsVisible reports whether the viewer may see the item. Public items
// are visible to everyone; members-only items require membership in the
// item's organization. Unknown visibility values fail closed.
func IsVisible(item models.FeedItem, viewerOrgIDs map[string]bool) bool {
	switch item.Visibility {
	case models.VisibilityPublic:
		return true
	case models.VisibilityMembers:
		return viewerOrgIDs[item.OrganizationID]
	default:
		return false
	}
}

// filterVisible keeps only items the viewer may see, preserving order
func filterVisible(items []models.FeedItem, viewerOrgIDs map[string]bool) []models.FeedItem {
	out := make([]models.FeedItem, 0, len(items))
	for _, item := range items {
		if IsVisible(item, viewerOrgIDs) {
			out = append(out, item)
		}
	}
	return out
}
