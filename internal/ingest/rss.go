package ingest

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/campuslink/campuslink/internal/logging"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/ratelimit"
)

const (
	defaultMaxItems  = 50
	defaultUserAgent = "CampusLinkBot/1.0"
)

// AnnouncementWriter is the store surface the importer writes through
type AnnouncementWriter interface {
	OrganizationFeeds(ctx context.Context) ([]models.OrganizationFeed, error)
	UpsertAnnouncement(ctx context.Context, params models.AnnouncementUpsert) error
}

// Importer pulls entries from organizations' registered RSS/Atom feeds
// and upserts them as announcements.
type Importer struct {
	parser   *gofeed.Parser
	store    AnnouncementWriter
	limiter  *ratelimit.Limiter
	logger   *logging.Logger
	maxItems int
}

func NewImporter(store AnnouncementWriter, limiter *ratelimit.Limiter, logger *logging.Logger) *Importer {
	parser := gofeed.NewParser()
	parser.UserAgent = defaultUserAgent

	return &Importer{
		parser:   parser,
		store:    store,
		limiter:  limiter,
		logger:   logger,
		maxItems: defaultMaxItems,
	}
}

// Run imports on a fixed interval until the context is cancelled. An
// initial import runs immediately.
func (imp *Importer) Run(ctx context.Context, interval time.Duration) {
	imp.ImportAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			imp.ImportAll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// ImportAll imports every registered organization feed. A failing feed
// is logged and skipped; it never aborts the sweep.
func (imp *Importer) ImportAll(ctx context.Context) {
	feeds, err := imp.store.OrganizationFeeds(ctx)
	if err != nil {
		imp.logger.Warn("Failed to list organization feeds", logging.WithField("error", err.Error()))
		return
	}

	total := 0
	for _, feed := range feeds {
		count, err := imp.importFeed(ctx, feed)
		if err != nil {
			imp.logger.Warn("Feed import failed", logging.WithFields(map[string]interface{}{
				"org":   feed.OrganizationID,
				"url":   feed.FeedURL,
				"error": err.Error(),
			}))
			continue
		}
		total += count
	}

	if len(feeds) > 0 {
		imp.logger.Info("Announcement import complete", logging.WithFields(map[string]interface{}{
			"feeds":   len(feeds),
			"entries": total,
		}))
	}
}

func (imp *Importer) importFeed(ctx context.Context, orgFeed models.OrganizationFeed) (int, error) {
	if host := feedHost(orgFeed.FeedURL); host != "" && imp.limiter != nil {
		imp.limiter.Wait(host)
	}

	parsed, err := imp.parser.ParseURLWithContext(orgFeed.FeedURL, ctx)
	if err != nil {
		return 0, fmt.Errorf("parse feed: %w", err)
	}

	items := parsed.Items
	if len(items) > imp.maxItems {
		items = items[:imp.maxItems]
	}

	count := 0
	for _, item := range items {
		upsert, ok := mapItem(orgFeed.OrganizationID, item)
		if !ok {
			continue
		}
		if err := imp.store.UpsertAnnouncement(ctx, upsert); err != nil {
			return count, err
		}
		count++
	}

	return count, nil
}

// mapItem converts one feed entry into an announcement upsert. Entries
// with no title are skipped; the GUID falls back to the link so the
// upsert stays idempotent.
func mapItem(orgID string, item *gofeed.Item) (models.AnnouncementUpsert, bool) {
	if item == nil || item.Title == "" {
		return models.AnnouncementUpsert{}, false
	}

	guid := item.GUID
	if guid == "" {
		guid = item.Link
	}
	if guid == "" {
		return models.AnnouncementUpsert{}, false
	}

	published := time.Now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	content := item.Description
	if content == "" {
		content = item.Content
	}

	return models.AnnouncementUpsert{
		OrganizationID: orgID,
		SourceGUID:     guid,
		Title:          item.Title,
		Content:        content,
		PublishedAt:    published,
	}, true
}

func feedHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
