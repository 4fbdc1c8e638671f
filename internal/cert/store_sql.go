package cert

import (
	"context"
	"database/sql"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// PutIfAbsent relies on the unique (learner_id, course_id) index: the
// insert either wins or touches zero rows, never duplicates.
func (s *SQLStore) PutIfAbsent(ctx context.Context, c Certificate) (Certificate, bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO certificates
		(verification_id,learner_id,course_id,learner_name,course_name,completed_at,issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (learner_id,course_id) DO NOTHING`,
		c.VerificationID, c.LearnerID, c.CourseID, c.LearnerName, c.CourseName, c.CompletedAt, c.IssuedAt)
	if err != nil {
		return Certificate{}, false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return c, true, nil
	}
	existing, err := s.getByPair(ctx, c.LearnerID, c.CourseID)
	return existing, false, err
}

func (s *SQLStore) Get(ctx context.Context, verificationID string) (Certificate, error) {
	return scanCert(s.db.QueryRowContext(ctx, `SELECT verification_id,learner_id,course_id,learner_name,course_name,completed_at,issued_at
		FROM certificates WHERE verification_id=$1`, verificationID))
}

func (s *SQLStore) getByPair(ctx context.Context, learnerID, courseID string) (Certificate, error) {
	return scanCert(s.db.QueryRowContext(ctx, `SELECT verification_id,learner_id,course_id,learner_name,course_name,completed_at,issued_at
		FROM certificates WHERE learner_id=$1 AND course_id=$2`, learnerID, courseID))
}

func scanCert(row *sql.Row) (Certificate, error) {
	var c Certificate
	if err := row.Scan(&c.VerificationID, &c.LearnerID, &c.CourseID, &c.LearnerName,
		&c.CourseName, &c.CompletedAt, &c.IssuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Certificate{}, ErrNotFound
		}
		return Certificate{}, err
	}
	return c, nil
}
