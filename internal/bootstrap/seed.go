package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eduverse/tutorhub-server-go/internal/features/catalog"
	"github.com/eduverse/tutorhub-server-go/internal/store"
)

// DemoBatchID is the batch seeded for fresh installs so the client has
// something to render before an admin uploads real content.
const DemoBatchID = "demo-batch"

// SeedDemoCatalog populates the demo batch with sample chapters and content.
// The seed is gated on the batch already having chapters, so restarting the
// server never duplicates rows. The check-then-insert race on first boot is
// benign: two concurrent seeds produce the same demo data.
func SeedDemoCatalog(ctx context.Context, st *store.Store, logger *slog.Logger) error {
	if catalog.HasChapters(ctx, st, DemoBatchID) {
		logger.Info("demo catalog already seeded", slog.String("batchId", DemoBatchID))
		return nil
	}

	type seedChapter struct {
		chapter  catalog.Chapter
		contents []catalog.ClassContent
	}

	seeds := []seedChapter{
		{
			chapter: catalog.Chapter{
				ID:          "demo-physics-kinematics",
				BatchID:     DemoBatchID,
				Subject:     "Physics",
				Title:       "Kinematics",
				Order:       1,
				Description: "Motion in one and two dimensions.",
			},
			contents: []catalog.ClassContent{
				{
					ID:        "demo-physics-kinematics-01",
					BatchID:   DemoBatchID,
					ChapterID: "demo-physics-kinematics",
					Subject:   "Physics",
					Title:     "Displacement and Velocity",
					VideoURL:  "https://cdn.example.com/demo/physics/kinematics-01.mp4",
					Duration:  1260,
				},
				{
					ID:        "demo-physics-kinematics-02",
					BatchID:   DemoBatchID,
					ChapterID: "demo-physics-kinematics",
					Subject:   "Physics",
					Title:     "Uniform Acceleration",
					VideoURL:  "https://cdn.example.com/demo/physics/kinematics-02.mp4",
					Duration:  1415,
				},
			},
		},
		{
			chapter: catalog.Chapter{
				ID:          "demo-math-algebra",
				BatchID:     DemoBatchID,
				Subject:     "Mathematics",
				Title:       "Algebra Foundations",
				Order:       1,
				Description: "Expressions, equations and inequalities.",
			},
			contents: []catalog.ClassContent{
				{
					ID:        "demo-math-algebra-01",
					BatchID:   DemoBatchID,
					ChapterID: "demo-math-algebra",
					Subject:   "Mathematics",
					Title:     "Linear Equations",
					VideoURL:  "https://cdn.example.com/demo/math/algebra-01.mp4",
					Duration:  980,
				},
			},
		},
	}

	for _, seed := range seeds {
		if _, err := catalog.SaveChapter(ctx, st, seed.chapter); err != nil {
			return fmt.Errorf("seed chapter %s: %w", seed.chapter.ID, err)
		}
		for _, content := range seed.contents {
			if _, err := catalog.SaveContent(ctx, st, content); err != nil {
				return fmt.Errorf("seed content %s: %w", content.ID, err)
			}
		}
	}

	logger.Info("demo catalog seeded", slog.String("batchId", DemoBatchID))
	return nil
}
