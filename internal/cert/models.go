package cert

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("certificate not found")
	ErrCourseIncomplete = errors.New("course incomplete")
)

// Certificate is the verifiable artifact minted once per (learner, course).
// It is never mutated or deleted by normal operation.
type Certificate struct {
	VerificationID string `json:"verification_id"`
	LearnerID      string `json:"learner_id"`
	LearnerName    string `json:"learner_name"`
	CourseID       string `json:"course_id"`
	CourseName     string `json:"course_name"`
	CompletedAt    int64  `json:"completed_at"`
	IssuedAt       int64  `json:"issued_at"`
}

type Store interface {
	// PutIfAbsent inserts c unless a certificate already exists for the same
	// (learner, course) pair; then the existing one is returned with
	// created=false. This is the primitive that makes duplicate issuance
	// structurally impossible under concurrent requests.
	PutIfAbsent(ctx context.Context, c Certificate) (Certificate, bool, error)
	Get(ctx context.Context, verificationID string) (Certificate, error)
}

// Directory resolves a learner's display name, the identity-provider
// surface the issuer needs.
type Directory interface {
	DisplayName(ctx context.Context, learnerID string) (string, error)
}
