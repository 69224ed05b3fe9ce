package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eduverse/tutorhub-server-go/internal/store"
)

// DefaultDuration is assumed for content saved without an explicit length.
const DefaultDuration = 600

// Chapter groups class content within a (batch, subject) scope.
type Chapter struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	Subject     string    `json:"subject"`
	Title       string    `json:"title"`
	Order       int       `json:"order"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ClassContent is a single playable lesson.
type ClassContent struct {
	ID          string    `json:"id"`
	BatchID     string    `json:"batchId"`
	ChapterID   string    `json:"chapterId,omitempty"`
	Subject     string    `json:"subject"`
	Title       string    `json:"title"`
	VideoURL    string    `json:"videoUrl"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Description string    `json:"description,omitempty"`
	Duration    int       `json:"duration"`
	Order       *int      `json:"order,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// SaveChapter appends a chapter. Caller-supplied ids are kept as-is.
func SaveChapter(ctx context.Context, st *store.Store, chapter Chapter) (Chapter, error) {
	if chapter.Title == "" || chapter.BatchID == "" || chapter.Subject == "" {
		return Chapter{}, ErrMissingFields
	}

	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	if chapter.CreatedAt.IsZero() {
		chapter.CreatedAt = time.Now()
	}

	err := st.Update(ctx, store.CollectionChapters, func(read func(dest interface{}) bool) (interface{}, error) {
		var chapters []Chapter
		read(&chapters)
		return append(chapters, chapter), nil
	})
	if err != nil {
		return Chapter{}, err
	}

	return chapter, nil
}

// GetChapters returns chapters for a (batch, subject) scope sorted ascending
// by their 1-based order.
func GetChapters(ctx context.Context, st *store.Store, batchID, subject string) ([]Chapter, error) {
	var chapters []Chapter
	st.Read(ctx, store.CollectionChapters, &chapters)

	scoped := make([]Chapter, 0)
	for _, ch := range chapters {
		if ch.BatchID == batchID && ch.Subject == subject {
			scoped = append(scoped, ch)
		}
	}

	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].Order < scoped[j].Order
	})

	return scoped, nil
}

// HasChapters reports whether a batch has any chapters at all. Used to gate
// idempotent demo seeding: check-then-insert with a benign race accepted.
func HasChapters(ctx context.Context, st *store.Store, batchID string) bool {
	var chapters []Chapter
	st.Read(ctx, store.CollectionChapters, &chapters)

	for _, ch := range chapters {
		if ch.BatchID == batchID {
			return true
		}
	}
	return false
}

// DeleteChapter removes a chapter and cascades into its class content. The
// cascade is an explicit consistency rule, not a database constraint.
func DeleteChapter(ctx context.Context, st *store.Store, id string) error {
	found := false
	err := st.Update(ctx, store.CollectionChapters, func(read func(dest interface{}) bool) (interface{}, error) {
		var chapters []Chapter
		read(&chapters)

		kept := make([]Chapter, 0, len(chapters))
		for _, ch := range chapters {
			if ch.ID == id {
				found = true
				continue
			}
			kept = append(kept, ch)
		}

		if !found {
			return nil, ErrChapterNotFound
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	return st.Update(ctx, store.CollectionContents, func(read func(dest interface{}) bool) (interface{}, error) {
		var contents []ClassContent
		read(&contents)

		kept := make([]ClassContent, 0, len(contents))
		changed := false
		for _, content := range contents {
			if content.ChapterID == id {
				changed = true
				continue
			}
			kept = append(kept, content)
		}

		if !changed {
			return nil, nil
		}
		return kept, nil
	})
}

// SaveContent inserts content at the head of the list so reads come back
// most-recent-first.
func SaveContent(ctx context.Context, st *store.Store, content ClassContent) (ClassContent, error) {
	if content.Title == "" || content.BatchID == "" || content.Subject == "" || content.VideoURL == "" {
		return ClassContent{}, ErrMissingFields
	}

	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	if content.Duration <= 0 {
		content.Duration = DefaultDuration
	}
	if content.Timestamp.IsZero() {
		content.Timestamp = time.Now()
	}

	err := st.Update(ctx, store.CollectionContents, func(read func(dest interface{}) bool) (interface{}, error) {
		var contents []ClassContent
		read(&contents)
		return append([]ClassContent{content}, contents...), nil
	})
	if err != nil {
		return ClassContent{}, err
	}

	return content, nil
}

// DeleteContent removes one content record.
func DeleteContent(ctx context.Context, st *store.Store, id string) error {
	return st.Update(ctx, store.CollectionContents, func(read func(dest interface{}) bool) (interface{}, error) {
		var contents []ClassContent
		read(&contents)

		kept := make([]ClassContent, 0, len(contents))
		found := false
		for _, content := range contents {
			if content.ID == id {
				found = true
				continue
			}
			kept = append(kept, content)
		}

		if !found {
			return nil, ErrContentNotFound
		}
		return kept, nil
	})
}

// GetContentByID fetches a single content record.
func GetContentByID(ctx context.Context, st *store.Store, id string) (ClassContent, error) {
	var contents []ClassContent
	st.Read(ctx, store.CollectionContents, &contents)

	for _, content := range contents {
		if content.ID == id {
			return content, nil
		}
	}
	return ClassContent{}, ErrContentNotFound
}

// GetAllContent returns every content record, most recent first.
func GetAllContent(ctx context.Context, st *store.Store) ([]ClassContent, error) {
	contents := []ClassContent{}
	st.Read(ctx, store.CollectionContents, &contents)
	return contents, nil
}

// GetBatchContent returns a batch's content, optionally narrowed to a subject.
func GetBatchContent(ctx context.Context, st *store.Store, batchID, subject string) ([]ClassContent, error) {
	var contents []ClassContent
	st.Read(ctx, store.CollectionContents, &contents)

	scoped := make([]ClassContent, 0)
	for _, content := range contents {
		if content.BatchID != batchID {
			continue
		}
		if subject != "" && content.Subject != subject {
			continue
		}
		scoped = append(scoped, content)
	}

	return scoped, nil
}
