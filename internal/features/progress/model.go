package progress

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/eduverse/tutorhub-server-go/internal/features/catalog"
	"github.com/eduverse/tutorhub-server-go/internal/store"
)

// CompletionThreshold marks content as finished once 90% has been watched.
const CompletionThreshold = 0.90

// ProgressRecord tracks one user's watch state for one content item. Batch,
// subject and chapter are denormalized so aggregate queries need no joins.
type ProgressRecord struct {
	UserID         string    `json:"userId"`
	ContentID      string    `json:"contentId"`
	WatchedSeconds int       `json:"watchedSeconds"`
	TotalSeconds   int       `json:"totalSeconds"`
	Completed      bool      `json:"completed"`
	LastUpdated    time.Time `json:"lastUpdated"`
	BatchID        string    `json:"batchId,omitempty"`
	Subject        string    `json:"subject,omitempty"`
	ChapterID      string    `json:"chapterId,omitempty"`
}

// HistoryEntry joins a progress record with its content for display.
type HistoryEntry struct {
	Record  ProgressRecord       `json:"record"`
	Content catalog.ClassContent `json:"content"`
}

// Analytics is the admin rollup over every progress record.
type Analytics struct {
	TotalWatchedHours float64        `json:"totalWatchedHours"`
	ActiveUsers       int            `json:"activeUsers"`
	CompletedByBatch  map[string]int `json:"completedByBatch"`
}

func key(userID, contentID string) string {
	return userID + "|" + contentID
}

// SaveProgress upserts the record for (user, content). Completion derives
// from the watched fraction against the threshold, and once a record is
// completed it stays completed even if a later write reports fewer watched
// seconds (a re-opened player seeking backward).
func SaveProgress(ctx context.Context, st *store.Store, rec ProgressRecord) (ProgressRecord, error) {
	if rec.UserID == "" || rec.ContentID == "" {
		return ProgressRecord{}, ErrMissingFields
	}
	if rec.TotalSeconds <= 0 {
		rec.TotalSeconds = catalog.DefaultDuration
	}

	var stored ProgressRecord
	err := st.Update(ctx, store.CollectionProgress, func(read func(dest interface{}) bool) (interface{}, error) {
		records := map[string]ProgressRecord{}
		read(&records)

		percent := float64(rec.WatchedSeconds) / float64(rec.TotalSeconds)
		rec.Completed = percent >= CompletionThreshold

		if prior, ok := records[key(rec.UserID, rec.ContentID)]; ok && prior.Completed {
			rec.Completed = true
		}

		rec.LastUpdated = time.Now()
		records[key(rec.UserID, rec.ContentID)] = rec
		stored = rec
		return records, nil
	})
	if err != nil {
		return ProgressRecord{}, err
	}

	return stored, nil
}

// GetProgress fetches the record for (user, content), if any.
func GetProgress(ctx context.Context, st *store.Store, userID, contentID string) (ProgressRecord, bool) {
	records := map[string]ProgressRecord{}
	st.Read(ctx, store.CollectionProgress, &records)

	rec, ok := records[key(userID, contentID)]
	return rec, ok
}

// GetBatchProgress returns the user's completion percentage across a batch:
// completed content in scope over content in scope, rounded to the nearest
// integer, 0 when the batch has no content.
func GetBatchProgress(ctx context.Context, st *store.Store, userID, batchID string) (int, error) {
	return scopedProgress(ctx, st, userID, batchID, "")
}

// GetSubjectProgress narrows the percentage to one subject within a batch.
func GetSubjectProgress(ctx context.Context, st *store.Store, userID, batchID, subject string) (int, error) {
	return scopedProgress(ctx, st, userID, batchID, subject)
}

func scopedProgress(ctx context.Context, st *store.Store, userID, batchID, subject string) (int, error) {
	contents, err := catalog.GetBatchContent(ctx, st, batchID, subject)
	if err != nil {
		return 0, err
	}
	if len(contents) == 0 {
		return 0, nil
	}

	records := map[string]ProgressRecord{}
	st.Read(ctx, store.CollectionProgress, &records)

	completed := 0
	for _, content := range contents {
		if rec, ok := records[key(userID, content.ID)]; ok && rec.Completed {
			completed++
		}
	}

	return int(math.Round(float64(completed) / float64(len(contents)) * 100)), nil
}

// GetRecentHistory returns the user's most recently updated records joined
// with their content. Records whose content has since been deleted are
// silently skipped.
func GetRecentHistory(ctx context.Context, st *store.Store, userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	records := map[string]ProgressRecord{}
	st.Read(ctx, store.CollectionProgress, &records)

	mine := make([]ProgressRecord, 0)
	for _, rec := range records {
		if rec.UserID == userID {
			mine = append(mine, rec)
		}
	}

	sort.Slice(mine, func(i, j int) bool {
		return mine[i].LastUpdated.After(mine[j].LastUpdated)
	})

	entries := make([]HistoryEntry, 0, limit)
	for _, rec := range mine {
		if len(entries) == limit {
			break
		}

		content, err := catalog.GetContentByID(ctx, st, rec.ContentID)
		if err != nil {
			continue
		}

		entries = append(entries, HistoryEntry{Record: rec, Content: content})
	}

	return entries, nil
}

// GetAdminAnalytics computes the read-side rollups for the admin console:
// total watched hours across all users, distinct users with any record, and
// completed lesson counts per batch. Pure reads, no side effects.
func GetAdminAnalytics(ctx context.Context, st *store.Store) (Analytics, error) {
	records := map[string]ProgressRecord{}
	st.Read(ctx, store.CollectionProgress, &records)

	totalSeconds := 0
	users := map[string]struct{}{}
	byBatch := map[string]int{}

	for _, rec := range records {
		totalSeconds += rec.WatchedSeconds
		users[rec.UserID] = struct{}{}
		if rec.Completed && rec.BatchID != "" {
			byBatch[rec.BatchID]++
		}
	}

	return Analytics{
		TotalWatchedHours: math.Round(float64(totalSeconds)/3600*100) / 100,
		ActiveUsers:       len(users),
		CompletedByBatch:  byBatch,
	}, nil
}
