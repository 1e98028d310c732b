package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/campuslink/campuslink/internal/cache"
	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/models"
)

const (
	feedCacheTTL       = 2 * time.Minute
	membershipCacheTTL = 5 * time.Minute
)

// ErrAllSourcesFailed is returned when no content source could be read.
// A single failing source degrades to an empty list instead.
var ErrAllSourcesFailed = errors.New("all feed sources failed")

// ContentSource supplies raw rows for the three content types
type ContentSource interface {
	Posts(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PostRow, error)
	Announcements(ctx context.Context, viewerOrgIDs []string) ([]models.AnnouncementRow, error)
	Polls(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PollRow, error)
}

// MembershipSource resolves the viewer's organization memberships
type MembershipSource interface {
	ViewerOrganizationIDs(ctx context.Context, userID string) ([]string, error)
}

// Service composes the merged feed: fetch, normalize, visibility-filter,
// merge, search, paginate.
type Service struct {
	content     ContentSource
	memberships MembershipSource
	cache       cache.Cache
	logger      *logging.Logger
	now         func() time.Time
}

func NewService(content ContentSource, memberships MembershipSource, c cache.Cache, logger *logging.Logger) *Service {
	return &Service{
		content:     content,
		memberships: memberships,
		cache:       c,
		logger:      logger,
		now:         time.Now,
	}
}

// Feed returns one page of the viewer's merged feed. Failed sources
// degrade to empty lists; only when every source fails does the call
// error.
func (s *Service) Feed(ctx context.Context, viewerID string, scope models.Scope, params models.FilterParams) (models.FeedResponse, error) {
	orgIDs := s.viewerOrgIDs(ctx, viewerID)

	key := fmt.Sprintf("feed:%s:%s", scope, viewerID)
	items, ok := s.cachedItems(key)
	if !ok {
		collected, err := s.collect(ctx, viewerID, scope, orgIDs)
		if err != nil {
			return models.FeedResponse{}, err
		}
		items = collected
		if s.cache != nil {
			s.cache.SetWithTTL(key, items, feedCacheTTL)
		}
	}

	working := make([]models.FeedItem, len(items))
	copy(working, items)

	sortItems(working, params.Sort)
	working = FilterTab(working, params.Tab)
	working = Search(working, params.Query)

	total := len(working)
	working = paginate(working, params.Limit, params.Offset)

	return models.FeedResponse{
		Items:      working,
		TotalCount: total,
		FetchedAt:  s.now(),
	}, nil
}

// Invalidate drops cached feed snapshots so the next read is a full
// re-fetch-and-rebuild. Called after vote and comment writes.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

type sourceResult struct {
	name  string
	items []models.FeedItem
	err   error
}

// collect fetches the three sources concurrently, normalizes them, and
// returns the visibility-filtered concatenation in posts, announcements,
// polls order. Each source keeps its own most-recent-first row order.
func (s *Service) collect(ctx context.Context, viewerID string, scope models.Scope, orgIDs []string) ([]models.FeedItem, error) {
	orgSet := make(map[string]bool, len(orgIDs))
	for _, id := range orgIDs {
		orgSet[id] = true
	}

	now := s.now()

	var wg sync.WaitGroup
	results := make(chan sourceResult, 3)

	wg.Add(3)
	go func() {
		defer wg.Done()
		rows, err := s.content.Posts(ctx, scope, viewerID, orgIDs)
		items := make([]models.FeedItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, NormalizePost(row))
		}
		results <- sourceResult{name: "posts", items: items, err: err}
	}()
	go func() {
		defer wg.Done()
		rows, err := s.content.Announcements(ctx, orgIDs)
		items := make([]models.FeedItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, NormalizeAnnouncement(row))
		}
		results <- sourceResult{name: "announcements", items: items, err: err}
	}()
	go func() {
		defer wg.Done()
		rows, err := s.content.Polls(ctx, scope, viewerID, orgIDs)
		items := make([]models.FeedItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, NormalizePoll(row, now))
		}
		results <- sourceResult{name: "polls", items: items, err: err}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var posts, announcements, polls []models.FeedItem
	failures := 0
	for result := range results {
		if result.err != nil {
			failures++
			s.logger.Warn("Feed source failed, continuing without it", logging.WithFields(map[string]interface{}{
				"source": result.name,
				"error":  result.err.Error(),
			}))
			continue
		}
		switch result.name {
		case "posts":
			posts = result.items
		case "announcements":
			announcements = result.items
		case "polls":
			polls = result.items
		}
	}

	if failures == 3 {
		return nil, ErrAllSourcesFailed
	}

	// Announcements are pre-filtered at the fetch boundary; posts and
	// polls carry a visibility column and are filtered here.
	posts = filterVisible(posts, orgSet)
	polls = filterVisible(polls, orgSet)

	merged := make([]models.FeedItem, 0, len(posts)+len(announcements)+len(polls))
	merged = append(merged, posts...)
	merged = append(merged, announcements...)
	merged = append(merged, polls...)
	return merged, nil
}

func (s *Service) viewerOrgIDs(ctx context.Context, viewerID string) []string {
	if viewerID == "" || s.memberships == nil {
		return nil
	}

	key := "orgs:" + viewerID
	if ids, ok := s.cachedOrgIDs(key); ok {
		return ids
	}

	ids, err := s.memberships.ViewerOrganizationIDs(ctx, viewerID)
	if err != nil {
		s.logger.Warn("Failed to load viewer memberships, treating as none", logging.WithFields(map[string]interface{}{
			"viewer": viewerID,
			"error":  err.Error(),
		}))
		return nil
	}

	if s.cache != nil {
		s.cache.SetWithTTL(key, ids, membershipCacheTTL)
	}
	return ids
}

// cachedItems reads a feed snapshot back from the cache. The Redis
// backend round-trips through JSON, so a decode fallback is needed for
// values that come back as generic types.
func (s *Service) cachedItems(key string) ([]models.FeedItem, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, ok := s.cache.Get(key)
	if !ok || cached == nil {
		return nil, false
	}

	if items, ok := cached.([]models.FeedItem); ok {
		return items, true
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, false
	}
	var decoded []models.FeedItem
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

func (s *Service) cachedOrgIDs(key string) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}

	cached, ok := s.cache.Get(key)
	if !ok || cached == nil {
		return nil, false
	}

	if ids, ok := cached.([]string); ok {
		return ids, true
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return nil, false
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}
