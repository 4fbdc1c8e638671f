package records

import (
	"context"
	"testing"

	"github.com/openlearn/coursecert/internal/course"
)

func TestTrackerRecomputeFromCatalog(t *testing.T) {
	ctx := context.Background()
	catalog := course.NewInMemoryStore()
	if err := catalog.PutCourse(ctx, course.Course{
		ID: "c1", Title: "T",
		Modules: []course.Module{{ID: "m1", SubUnits: []course.SubUnit{{ID: "u1"}, {ID: "u2"}}}},
	}); err != nil {
		t.Fatal(err)
	}
	m := NewMemoryStore()
	if _, err := m.Enroll(ctx, "u1", "c1"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CommitCompletion(ctx, Completion{Result: result("m1", "u1", 80, 1), TotalSubUnits: 2}); err != nil {
		t.Fatal(err)
	}

	tr := NewTracker(catalog, m)
	p, err := tr.Recompute(ctx, "u1", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Progress != 50 {
		t.Fatalf("progress = %v, want 50", p.Progress)
	}
}

func TestTrackerMissingCourseWritesNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if _, err := m.Enroll(ctx, "u1", "gone"); err != nil {
		t.Fatal(err)
	}
	before, _ := m.GetProgress(ctx, "u1", "gone")

	tr := NewTracker(course.NewInMemoryStore(), m)
	if _, err := tr.Recompute(ctx, "u1", "gone"); err == nil {
		t.Fatal("expected error for missing course")
	}
	after, _ := m.GetProgress(ctx, "u1", "gone")
	if after != before {
		t.Fatalf("progress mutated on failure: %+v vs %+v", after, before)
	}
}
