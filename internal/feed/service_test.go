package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campuslink/campuslink/internal/cache"
	"github.com/campuslink/campuslink/internal/models"
	"github.com/campuslink/campuslink/internal/testutil"
)

type fakeContent struct {
	posts         []models.PostRow
	announcements []models.AnnouncementRow
	polls         []models.PollRow

	postsErr         error
	announcementsErr error
	pollsErr         error

	postCalls int
}

func (f *fakeContent) Posts(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PostRow, error) {
	f.postCalls++
	return f.posts, f.postsErr
}

func (f *fakeContent) Announcements(ctx context.Context, viewerOrgIDs []string) ([]models.AnnouncementRow, error) {
	return f.announcements, f.announcementsErr
}

func (f *fakeContent) Polls(ctx context.Context, scope models.Scope, viewerID string, viewerOrgIDs []string) ([]models.PollRow, error) {
	return f.polls, f.pollsErr
}

type fakeMemberships struct {
	orgs map[string][]string
	err  error
}

func (f *fakeMemberships) ViewerOrganizationIDs(ctx context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.orgs[userID], nil
}

func newTestService(content *fakeContent, memberships *fakeMemberships) *Service {
	svc := NewService(content, memberships, cache.NewMemory(time.Minute), testutil.NullLogger())
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestFeedMergesAllSources(t *testing.T) {
	content := &fakeContent{
		posts: []models.PostRow{
			{ID: "1", OrganizationID: "org-1", Title: "Post", Visibility: "public",
				CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		announcements: []models.AnnouncementRow{
			{ID: "A", OrganizationID: "org-1", Title: "Announcement",
				CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
		},
	}
	memberships := &fakeMemberships{orgs: map[string][]string{"viewer-1": {"org-1"}}}
	svc := newTestService(content, memberships)

	resp, err := svc.Feed(context.Background(), "viewer-1", models.ScopeAll, models.FilterParams{Limit: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"A", "1"}
	if !equalIDs(ids(resp.Items), want) {
		t.Errorf("expected order %v, got %v", want, ids(resp.Items))
	}
	if resp.TotalCount != 2 {
		t.Errorf("expected total 2, got %d", resp.TotalCount)
	}
}

func TestFeedFiltersMembersOnlyContent(t *testing.T) {
	content := &fakeContent{
		posts: []models.PostRow{
			{ID: "pub", OrganizationID: "org-2", Visibility: "public", CreatedAt: time.Now()},
			{ID: "hidden", OrganizationID: "org-2", Visibility: "members", CreatedAt: time.Now()},
			{ID: "mine", OrganizationID: "org-1", Visibility: "members", CreatedAt: time.Now()},
		},
	}
	memberships := &fakeMemberships{orgs: map[string][]string{"viewer-1": {"org-1"}}}
	svc := newTestService(content, memberships)

	resp, err := svc.Feed(context.Background(), "viewer-1", models.ScopeAll, models.FilterParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, it := range resp.Items {
		seen[it.ID] = true
	}
	if !seen["pub"] || !seen["mine"] {
		t.Errorf("expected pub and mine visible, got %v", ids(resp.Items))
	}
	if seen["hidden"] {
		t.Error("members-only post from a non-member org leaked into the feed")
	}
}

func TestFeedSingleSourceFailureDegrades(t *testing.T) {
	content := &fakeContent{
		posts:    []models.PostRow{{ID: "1", OrganizationID: "org-1", Visibility: "public", CreatedAt: time.Now()}},
		pollsErr: errors.New("polls table on fire"),
	}
	svc := newTestService(content, &fakeMemberships{})

	resp, err := svc.Feed(context.Background(), "", models.ScopeAll, models.FilterParams{})
	if err != nil {
		t.Fatalf("one failed source must not fail the feed: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "1" {
		t.Errorf("expected the surviving post, got %v", ids(resp.Items))
	}
}

func TestFeedAllSourcesFailed(t *testing.T) {
	boom := errors.New("db down")
	content := &fakeContent{postsErr: boom, announcementsErr: boom, pollsErr: boom}
	svc := newTestService(content, &fakeMemberships{})

	_, err := svc.Feed(context.Background(), "", models.ScopeAll, models.FilterParams{})
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
}

func TestFeedCachesSnapshot(t *testing.T) {
	content := &fakeContent{
		posts: []models.PostRow{{ID: "1", OrganizationID: "org-1", Visibility: "public", CreatedAt: time.Now()}},
	}
	svc := newTestService(content, &fakeMemberships{})

	if _, err := svc.Feed(context.Background(), "", models.ScopeAll, models.FilterParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Feed(context.Background(), "", models.ScopeAll, models.FilterParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if content.postCalls != 1 {
		t.Errorf("expected 1 source fetch with a warm cache, got %d", content.postCalls)
	}

	svc.Invalidate()

	if _, err := svc.Feed(context.Background(), "", models.ScopeAll, models.FilterParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.postCalls != 2 {
		t.Errorf("expected refetch after invalidation, got %d fetches", content.postCalls)
	}
}

func TestFeedMembershipFailureTreatedAsNone(t *testing.T) {
	content := &fakeContent{
		posts: []models.PostRow{
			{ID: "pub", OrganizationID: "org-1", Visibility: "public", CreatedAt: time.Now()},
			{ID: "mem", OrganizationID: "org-1", Visibility: "members", CreatedAt: time.Now()},
		},
	}
	memberships := &fakeMemberships{err: errors.New("memberships unavailable")}
	svc := newTestService(content, memberships)

	resp, err := svc.Feed(context.Background(), "viewer-1", models.ScopeAll, models.FilterParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "pub" {
		t.Errorf("expected only the public post when memberships are unknown, got %v", ids(resp.Items))
	}
}

func TestFeedAppliesFiltersAndPagination(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	content := &fakeContent{
		posts: []models.PostRow{
			{ID: "p1", OrganizationID: "org-1", Title: "Robotics demo", Visibility: "public", CreatedAt: base.Add(3 * time.Hour)},
			{ID: "p2", OrganizationID: "org-1", Title: "Bake sale", Visibility: "public", CreatedAt: base.Add(2 * time.Hour)},
		},
		announcements: []models.AnnouncementRow{
			{ID: "a1", OrganizationID: "org-1", Title: "Robotics announcement", CreatedAt: base.Add(time.Hour)},
		},
	}
	memberships := &fakeMemberships{orgs: map[string][]string{"viewer-1": {"org-1"}}}
	svc := newTestService(content, memberships)

	resp, err := svc.Feed(context.Background(), "viewer-1", models.ScopeAll, models.FilterParams{
		Query: "robotics",
		Limit: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.TotalCount != 2 {
		t.Errorf("expected total of 2 matches before pagination, got %d", resp.TotalCount)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "p1" {
		t.Errorf("expected first page [p1], got %v", ids(resp.Items))
	}
}
