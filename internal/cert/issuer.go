package cert

import (
	"context"
	"fmt"
	"time"

	"github.com/openlearn/coursecert/internal/audit"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/records"
)

// Issuer mints at most one certificate per (learner, course), lazily, the
// first time issuance is requested after progress reaches 100.
type Issuer struct {
	certs   Store
	catalog course.Store
	records records.Store
	names   Directory
	audit   audit.Log
	now     func() time.Time
}

func NewIssuer(certs Store, catalog course.Store, rec records.Store, names Directory, aud audit.Log, now func() time.Time) *Issuer {
	if now == nil {
		now = time.Now
	}
	return &Issuer{certs: certs, catalog: catalog, records: rec, names: names, audit: aud, now: now}
}

// Issue returns the existing certificate for (learner, course) or mints a
// new one. Concurrent requests for the same pair converge on a single
// certificate: the store's insert-if-absent decides the winner and losers
// read back the winner's artifact.
func (i *Issuer) Issue(ctx context.Context, learnerID, courseID string) (Certificate, error) {
	prog, err := i.records.GetProgress(ctx, learnerID, courseID)
	if err != nil {
		return Certificate{}, err
	}
	if prog.Progress < 100 {
		return Certificate{}, fmt.Errorf("%w: progress is %.0f%%", ErrCourseIncomplete, prog.Progress)
	}

	crs, err := i.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return Certificate{}, err
	}
	comp, err := i.records.GetCompletion(ctx, learnerID, courseID)
	if err != nil {
		return Certificate{}, err
	}
	completedAt := comp.FirstCompletedAt
	if completedAt == 0 {
		// The completion transaction always stamps firstCompletedAt; this
		// fallback only fires for records written before it existed.
		completedAt = i.now().Unix()
	}

	name := learnerID
	if i.names != nil {
		if n, err := i.names.DisplayName(ctx, learnerID); err == nil && n != "" {
			name = n
		}
	}

	c := Certificate{
		VerificationID: NewVerificationID(),
		LearnerID:      learnerID,
		LearnerName:    name,
		CourseID:       courseID,
		CourseName:     crs.Title,
		CompletedAt:    completedAt,
		IssuedAt:       i.now().Unix(),
	}
	out, created, err := i.certs.PutIfAbsent(ctx, c)
	if err != nil {
		return Certificate{}, err
	}
	if created {
		// best-effort stamp so later lookups skip the certificate query
		_ = i.records.StampVerification(ctx, learnerID, courseID, out.VerificationID)
		if i.audit != nil {
			_ = i.audit.Append(ctx, audit.EventCertificateIssued, out.VerificationID, map[string]any{
				"learner_id": learnerID,
				"course_id":  courseID,
			})
		}
	}
	return out, nil
}
