package progress

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/eduverse/tutorhub-server-go/internal/features/catalog"
	"github.com/eduverse/tutorhub-server-go/internal/store"
)

func newTestStore() *store.Store {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return store.New(store.NewMemoryBackend(), logger)
}

func seedContent(t *testing.T, st *store.Store, id, batchID, subject string) catalog.ClassContent {
	t.Helper()

	content, err := catalog.SaveContent(context.Background(), st, catalog.ClassContent{
		ID:       id,
		BatchID:  batchID,
		Subject:  subject,
		Title:    id,
		VideoURL: "https://cdn.example.com/" + id,
		Duration: 1000,
	})
	if err != nil {
		t.Fatalf("seed content %s: %v", id, err)
	}
	return content
}

func TestCompletionThreshold(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	rec, err := SaveProgress(ctx, st, ProgressRecord{
		UserID: "u1", ContentID: "c1", WatchedSeconds: 890, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if rec.Completed {
		t.Fatalf("expected 89%% watched to stay incomplete")
	}

	rec, err = SaveProgress(ctx, st, ProgressRecord{
		UserID: "u1", ContentID: "c1", WatchedSeconds: 900, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if !rec.Completed {
		t.Fatalf("expected 90%% watched to complete")
	}
}

func TestCompletionIsMonotonic(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	if _, err := SaveProgress(ctx, st, ProgressRecord{
		UserID: "u1", ContentID: "c1", WatchedSeconds: 950, TotalSeconds: 1000,
	}); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	// rewatching from the start must not clear completion
	rec, err := SaveProgress(ctx, st, ProgressRecord{
		UserID: "u1", ContentID: "c1", WatchedSeconds: 30, TotalSeconds: 1000,
	})
	if err != nil {
		t.Fatalf("save progress: %v", err)
	}
	if !rec.Completed {
		t.Fatalf("expected completion to be sticky")
	}
	if rec.WatchedSeconds != 30 {
		t.Fatalf("expected watched seconds to track the latest write, got %d", rec.WatchedSeconds)
	}
}

func TestBatchProgressPercent(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	seedContent(t, st, "c1", "b1", "Physics")
	seedContent(t, st, "c2", "b1", "Physics")
	seedContent(t, st, "c3", "b1", "Math")

	if _, err := SaveProgress(ctx, st, ProgressRecord{
		UserID: "u1", ContentID: "c1", WatchedSeconds: 1000, TotalSeconds: 1000, BatchID: "b1",
	}); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	percent, err := GetBatchProgress(ctx, st, "u1", "b1")
	if err != nil {
		t.Fatalf("batch progress: %v", err)
	}
	if percent != 33 {
		t.Fatalf("expected 1/3 to round to 33, got %d", percent)
	}

	subjectPercent, err := GetSubjectProgress(ctx, st, "u1", "b1", "Physics")
	if err != nil {
		t.Fatalf("subject progress: %v", err)
	}
	if subjectPercent != 50 {
		t.Fatalf("expected 1/2 Physics completion, got %d", subjectPercent)
	}
}

func TestEmptyScopeIsZero(t *testing.T) {
	st := newTestStore()

	percent, err := GetBatchProgress(context.Background(), st, "u1", "empty-batch")
	if err != nil {
		t.Fatalf("batch progress: %v", err)
	}
	if percent != 0 {
		t.Fatalf("expected 0 for empty scope, got %d", percent)
	}
}

func TestRecentHistorySkipsDeletedContent(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	seedContent(t, st, "c1", "b1", "Physics")
	deleted := seedContent(t, st, "c2", "b1", "Physics")

	for _, id := range []string{"c1", "c2"} {
		if _, err := SaveProgress(ctx, st, ProgressRecord{
			UserID: "u1", ContentID: id, WatchedSeconds: 100, TotalSeconds: 1000,
		}); err != nil {
			t.Fatalf("save progress %s: %v", id, err)
		}
	}

	if err := catalog.DeleteContent(ctx, st, deleted.ID); err != nil {
		t.Fatalf("delete content: %v", err)
	}

	entries, err := GetRecentHistory(ctx, st, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected deleted content skipped, got %d entries", len(entries))
	}
	if entries[0].Content.ID != "c1" {
		t.Fatalf("expected surviving content c1, got %s", entries[0].Content.ID)
	}
}

func TestAdminAnalytics(t *testing.T) {
	st := newTestStore()
	ctx := context.Background()

	saves := []ProgressRecord{
		{UserID: "u1", ContentID: "c1", WatchedSeconds: 3600, TotalSeconds: 3600, BatchID: "b1"},
		{UserID: "u1", ContentID: "c2", WatchedSeconds: 1800, TotalSeconds: 3600, BatchID: "b1"},
		{UserID: "u2", ContentID: "c1", WatchedSeconds: 3600, TotalSeconds: 3600, BatchID: "b1"},
	}
	for _, rec := range saves {
		if _, err := SaveProgress(ctx, st, rec); err != nil {
			t.Fatalf("save progress: %v", err)
		}
	}

	analytics, err := GetAdminAnalytics(ctx, st)
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if analytics.ActiveUsers != 2 {
		t.Fatalf("expected 2 active users, got %d", analytics.ActiveUsers)
	}
	if analytics.TotalWatchedHours != 2.5 {
		t.Fatalf("expected 2.5 watched hours, got %v", analytics.TotalWatchedHours)
	}
	if analytics.CompletedByBatch["b1"] != 2 {
		t.Fatalf("expected 2 completed lessons in b1, got %d", analytics.CompletedByBatch["b1"])
	}
}
