package records

import (
	"context"
	"fmt"

	"github.com/openlearn/coursecert/internal/course"
)

// Tracker recomputes stored progress from the completion record and the
// course definition.
type Tracker struct {
	catalog course.Store
	store   Store
}

func NewTracker(catalog course.Store, store Store) *Tracker {
	return &Tracker{catalog: catalog, store: store}
}

// Recompute reads the course definition and rewrites the ProgressRecord.
// If the course cannot be read, nothing is written.
func (t *Tracker) Recompute(ctx context.Context, learnerID, courseID string) (ProgressRecord, error) {
	c, err := t.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return ProgressRecord{}, fmt.Errorf("load course: %w", err)
	}
	return t.store.Recompute(ctx, learnerID, courseID, c.TotalSubUnits())
}
