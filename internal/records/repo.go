package records

import (
	"context"
	"errors"
)

var (
	ErrNotEnrolled = errors.New("not enrolled")
	// ErrNoResult is the expected empty state before a first attempt,
	// not a failure.
	ErrNoResult = errors.New("no attempt result")
)

// Completion is everything one passing attempt commits: the completion
// entry, the recomputed progress and the final attempt result.
type Completion struct {
	Result        AttemptResult
	TotalSubUnits int
}

type Store interface {
	// Enroll creates the enrollment together with a zero ProgressRecord and
	// an empty CompletionRecord. Re-enrolling is a no-op returning the
	// existing record.
	Enroll(ctx context.Context, learnerID, courseID string) (ProgressRecord, error)

	GetProgress(ctx context.Context, learnerID, courseID string) (ProgressRecord, error)
	GetCompletion(ctx context.Context, learnerID, courseID string) (CompletionRecord, error)
	GetAttemptResult(ctx context.Context, learnerID, courseID, moduleID, subUnitID string) (AttemptResult, error)
	PutAttemptResult(ctx context.Context, r AttemptResult) error

	// CommitCompletion applies the completion entry, the recomputed progress
	// and the attempt result as a single atomic write: a reader never sees
	// the completion map updated without the matching progress value.
	CommitCompletion(ctx context.Context, c Completion) (ProgressRecord, error)

	// Recompute rewrites progress from the stored completion map. Idempotent.
	Recompute(ctx context.Context, learnerID, courseID string, totalSubUnits int) (ProgressRecord, error)

	// StampVerification records the issued certificate's verification id on
	// the completion record so later lookups are cheap.
	StampVerification(ctx context.Context, learnerID, courseID, verificationID string) error
}
