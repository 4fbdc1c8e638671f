package course

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("course not found")

// Store is the read-only catalog collaborator. Course authoring lives
// outside this service; PutCourse exists for seeding and admin import.
type Store interface {
	GetCourse(ctx context.Context, id string) (Course, error)
	PutCourse(ctx context.Context, c Course) error
}
