package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Enroll(ctx context.Context, learnerID, courseID string) (ProgressRecord, error) {
	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ProgressRecord{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO course_progress (learner_id,course_id,progress,enrolled_at,last_updated)
		VALUES ($1,$2,0,$3,$4) ON CONFLICT (learner_id,course_id) DO NOTHING`,
		learnerID, courseID, now, now); err != nil {
		return ProgressRecord{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO completed_subunits (learner_id,course_id,completed_json)
		VALUES ($1,$2,'{}') ON CONFLICT (learner_id,course_id) DO NOTHING`,
		learnerID, courseID); err != nil {
		return ProgressRecord{}, err
	}
	var p ProgressRecord
	row := tx.QueryRowContext(ctx, `SELECT learner_id,course_id,progress,enrolled_at,last_updated
		FROM course_progress WHERE learner_id=$1 AND course_id=$2`, learnerID, courseID)
	if err := row.Scan(&p.LearnerID, &p.CourseID, &p.Progress, &p.EnrolledAt, &p.LastUpdated); err != nil {
		return ProgressRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return ProgressRecord{}, err
	}
	return p, nil
}

func (s *SQLStore) GetProgress(ctx context.Context, learnerID, courseID string) (ProgressRecord, error) {
	var p ProgressRecord
	row := s.db.QueryRowContext(ctx, `SELECT learner_id,course_id,progress,enrolled_at,last_updated
		FROM course_progress WHERE learner_id=$1 AND course_id=$2`, learnerID, courseID)
	if err := row.Scan(&p.LearnerID, &p.CourseID, &p.Progress, &p.EnrolledAt, &p.LastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProgressRecord{}, ErrNotEnrolled
		}
		return ProgressRecord{}, err
	}
	return p, nil
}

func (s *SQLStore) GetCompletion(ctx context.Context, learnerID, courseID string) (CompletionRecord, error) {
	return scanCompletion(s.db.QueryRowContext(ctx, `SELECT learner_id,course_id,completed_json,first_completed_at,verification_id
		FROM completed_subunits WHERE learner_id=$1 AND course_id=$2`, learnerID, courseID))
}

type rowScanner interface{ Scan(dest ...any) error }

func scanCompletion(row rowScanner) (CompletionRecord, error) {
	var c CompletionRecord
	var cjson string
	var first sql.NullInt64
	var verif sql.NullString
	if err := row.Scan(&c.LearnerID, &c.CourseID, &cjson, &first, &verif); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CompletionRecord{}, ErrNotEnrolled
		}
		return CompletionRecord{}, err
	}
	if err := json.Unmarshal([]byte(cjson), &c.Completed); err != nil {
		return CompletionRecord{}, err
	}
	if c.Completed == nil {
		c.Completed = map[string]CompletionEntry{}
	}
	c.FirstCompletedAt = first.Int64
	c.VerificationID = verif.String
	return c, nil
}

func (s *SQLStore) GetAttemptResult(ctx context.Context, learnerID, courseID, moduleID, subUnitID string) (AttemptResult, error) {
	var r AttemptResult
	row := s.db.QueryRowContext(ctx, `SELECT learner_id,course_id,module_id,subunit_id,score,correct_answers,total_questions,time_taken_sec,attempts,highest_score
		FROM exam_results WHERE learner_id=$1 AND course_id=$2 AND module_id=$3 AND subunit_id=$4`,
		learnerID, courseID, moduleID, subUnitID)
	if err := row.Scan(&r.LearnerID, &r.CourseID, &r.ModuleID, &r.SubUnitID, &r.Score,
		&r.CorrectAnswers, &r.TotalQuestions, &r.TimeTakenSec, &r.Attempts, &r.HighestScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AttemptResult{}, ErrNoResult
		}
		return AttemptResult{}, err
	}
	return r, nil
}

func (s *SQLStore) PutAttemptResult(ctx context.Context, r AttemptResult) error {
	return putResult(ctx, s.db, r)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putResult(ctx context.Context, db execer, r AttemptResult) error {
	_, err := db.ExecContext(ctx, `INSERT INTO exam_results
		(learner_id,course_id,module_id,subunit_id,score,correct_answers,total_questions,time_taken_sec,attempts,highest_score)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (learner_id,course_id,module_id,subunit_id) DO UPDATE SET
			score=EXCLUDED.score,
			correct_answers=EXCLUDED.correct_answers,
			total_questions=EXCLUDED.total_questions,
			time_taken_sec=EXCLUDED.time_taken_sec,
			attempts=EXCLUDED.attempts,
			highest_score=EXCLUDED.highest_score`,
		r.LearnerID, r.CourseID, r.ModuleID, r.SubUnitID, r.Score,
		r.CorrectAnswers, r.TotalQuestions, r.TimeTakenSec, r.Attempts, r.HighestScore)
	return err
}

// CommitCompletion runs the completion entry, the recomputed progress and
// the attempt result as one transaction: either all three land or none do.
func (s *SQLStore) CommitCompletion(ctx context.Context, c Completion) (ProgressRecord, error) {
	r := c.Result
	now := time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ProgressRecord{}, err
	}
	defer tx.Rollback()

	comp, err := scanCompletion(tx.QueryRowContext(ctx, `SELECT learner_id,course_id,completed_json,first_completed_at,verification_id
		FROM completed_subunits WHERE learner_id=$1 AND course_id=$2`, r.LearnerID, r.CourseID))
	if err != nil {
		return ProgressRecord{}, err
	}
	comp.Completed[SubUnitKey(r.ModuleID, r.SubUnitID)] = CompletionEntry{
		CompletedAt: now,
		Score:       r.Score,
		Attempts:    r.Attempts,
	}
	first := comp.FirstCompletedAt
	if first == 0 {
		first = now
	}
	cjson, err := json.Marshal(comp.Completed)
	if err != nil {
		return ProgressRecord{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE completed_subunits SET completed_json=$1, first_completed_at=$2
		WHERE learner_id=$3 AND course_id=$4`, string(cjson), first, r.LearnerID, r.CourseID); err != nil {
		return ProgressRecord{}, err
	}

	progress := ProgressPercent(len(comp.Completed), c.TotalSubUnits)
	if _, err := tx.ExecContext(ctx, `UPDATE course_progress SET progress=$1, last_updated=$2
		WHERE learner_id=$3 AND course_id=$4`, progress, now, r.LearnerID, r.CourseID); err != nil {
		return ProgressRecord{}, err
	}

	if err := putResult(ctx, tx, r); err != nil {
		return ProgressRecord{}, err
	}
	if err := tx.Commit(); err != nil {
		return ProgressRecord{}, err
	}
	return s.GetProgress(ctx, r.LearnerID, r.CourseID)
}

func (s *SQLStore) Recompute(ctx context.Context, learnerID, courseID string, totalSubUnits int) (ProgressRecord, error) {
	comp, err := s.GetCompletion(ctx, learnerID, courseID)
	if err != nil {
		return ProgressRecord{}, err
	}
	progress := ProgressPercent(len(comp.Completed), totalSubUnits)
	res, err := s.db.ExecContext(ctx, `UPDATE course_progress SET progress=$1, last_updated=$2
		WHERE learner_id=$3 AND course_id=$4`, progress, time.Now().Unix(), learnerID, courseID)
	if err != nil {
		return ProgressRecord{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ProgressRecord{}, ErrNotEnrolled
	}
	return s.GetProgress(ctx, learnerID, courseID)
}

func (s *SQLStore) StampVerification(ctx context.Context, learnerID, courseID, verificationID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE completed_subunits SET verification_id=$1
		WHERE learner_id=$2 AND course_id=$3`, verificationID, learnerID, courseID)
	return err
}
