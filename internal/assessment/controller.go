package assessment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openlearn/coursecert/internal/audit"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/records"
)

// Controller enforces the retry policy around timed sessions and records
// every attempt's outcome. Passing submissions are converted into durable
// completion state through the records store's atomic commit.
type Controller struct {
	catalog  course.Store
	records  records.Store
	sessions SessionStore
	audit    audit.Log
	now      func() time.Time

	mu   sync.Mutex
	live map[string]*Session // attempt id -> session in this process
}

func NewController(catalog course.Store, rec records.Store, sessions SessionStore, aud audit.Log, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		catalog:  catalog,
		records:  rec,
		sessions: sessions,
		audit:    aud,
		now:      now,
		live:     map[string]*Session{},
	}
}

// Start opens (or resumes) the timed session for key. It refuses when the
// stored result already shows a pass or an exhausted attempt budget.
func (c *Controller) Start(ctx context.Context, key AttemptKey) (*Session, error) {
	if !key.valid() {
		return nil, fmt.Errorf("%w: missing attempt identifiers", ErrValidation)
	}
	if _, err := c.records.GetProgress(ctx, key.LearnerID, key.CourseID); err != nil {
		return nil, err
	}

	prev, err := c.records.GetAttemptResult(ctx, key.LearnerID, key.CourseID, key.ModuleID, key.SubUnitID)
	if err != nil && !errors.Is(err, records.ErrNoResult) {
		return nil, err
	}
	switch Outcome(prev) {
	case Passed:
		return nil, ErrAlreadyPassed
	case TerminalFail:
		return nil, ErrAttemptLimit
	}

	crs, err := c.catalog.GetCourse(ctx, key.CourseID)
	if err != nil {
		return nil, err
	}
	su, ok := crs.FindSubUnit(key.ModuleID, key.SubUnitID)
	if !ok {
		return nil, fmt.Errorf("sub-unit %s/%s: %w", key.ModuleID, key.SubUnitID, course.ErrNotFound)
	}
	if su.Quiz == nil || len(su.Quiz.Questions) == 0 {
		return nil, ErrNoQuiz
	}

	row, err := c.sessions.GetOpen(ctx, key)
	if errors.Is(err, ErrNoSession) {
		row = SessionRow{
			ID:           uuid.NewString(),
			Key:          key,
			TimeLimitSec: su.Quiz.TimeLimitSec,
			StartedAt:    c.now().Unix(),
			Status:       "in_progress",
		}
		if err := c.sessions.Put(ctx, row); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	c.mu.Lock()
	s, ok := c.live[row.ID]
	if !ok {
		s = newSession(row.ID, key, su.Quiz.Questions,
			time.Unix(row.StartedAt, 0), time.Duration(row.TimeLimitSec)*time.Second, c.now)
		c.live[row.ID] = s
	}
	c.mu.Unlock()

	if rem := s.Remaining(); rem > 0 {
		id := s.ID
		s.armExpiry(rem, func() { _, _, _ = c.Submit(context.Background(), id) })
	} else if !s.Submitted() {
		// anchor already expired: submission is forced
		if _, _, err := c.Submit(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Session returns the live session for an attempt id.
func (c *Controller) Session(attemptID string) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.live[attemptID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Submit grades the session and persists the outcome. Grading happens at
// most once per session; if persisting fails the attempt stays
// re-submittable and no partial state lands. A pass commits the completion
// entry, recomputed progress and attempt result atomically.
func (c *Controller) Submit(ctx context.Context, attemptID string) (records.AttemptResult, State, error) {
	s, err := c.Session(attemptID)
	if err != nil {
		return records.AttemptResult{}, NotAttempted, err
	}
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	res, _ := s.finish()
	if s.isRecorded() {
		stored, err := c.records.GetAttemptResult(ctx, s.Key.LearnerID, s.Key.CourseID, s.Key.ModuleID, s.Key.SubUnitID)
		if err != nil {
			return records.AttemptResult{}, NotAttempted, err
		}
		return stored, Outcome(stored), nil
	}

	prev, err := c.records.GetAttemptResult(ctx, s.Key.LearnerID, s.Key.CourseID, s.Key.ModuleID, s.Key.SubUnitID)
	if err != nil && !errors.Is(err, records.ErrNoResult) {
		return records.AttemptResult{}, NotAttempted, err
	}
	attempts := prev.Attempts + 1
	highest := prev.HighestScore
	if res.Score > highest {
		highest = res.Score
	}
	state := Transition(res.Score, attempts)
	result := records.AttemptResult{
		LearnerID:      s.Key.LearnerID,
		CourseID:       s.Key.CourseID,
		ModuleID:       s.Key.ModuleID,
		SubUnitID:      s.Key.SubUnitID,
		Score:          res.Score,
		CorrectAnswers: res.CorrectAnswers,
		TotalQuestions: res.TotalQuestions,
		TimeTakenSec:   res.TimeTakenSec,
		Attempts:       attempts,
		HighestScore:   highest,
	}

	if state == Passed {
		crs, err := c.catalog.GetCourse(ctx, s.Key.CourseID)
		if err != nil {
			return records.AttemptResult{}, NotAttempted, fmt.Errorf("load course: %w", err)
		}
		if _, err := c.records.CommitCompletion(ctx, records.Completion{
			Result:        result,
			TotalSubUnits: crs.TotalSubUnits(),
		}); err != nil {
			return records.AttemptResult{}, NotAttempted, fmt.Errorf("commit completion: %w", err)
		}
	} else if err := c.records.PutAttemptResult(ctx, result); err != nil {
		return records.AttemptResult{}, NotAttempted, fmt.Errorf("record attempt: %w", err)
	}

	s.markRecorded()
	_ = c.sessions.MarkSubmitted(ctx, s.ID)

	if c.audit != nil {
		_ = c.audit.Append(ctx, audit.EventAttemptSubmitted, s.ID, map[string]any{
			"learner_id": s.Key.LearnerID,
			"course_id":  s.Key.CourseID,
			"module_id":  s.Key.ModuleID,
			"sub_unit":   s.Key.SubUnitID,
			"score":      result.Score,
			"attempts":   result.Attempts,
			"state":      state.String(),
		})
		if state == Passed {
			_ = c.audit.Append(ctx, audit.EventSubUnitCompleted,
				records.SubUnitKey(s.Key.ModuleID, s.Key.SubUnitID), map[string]any{
					"learner_id": s.Key.LearnerID,
					"course_id":  s.Key.CourseID,
					"score":      result.Score,
				})
		}
	}
	return result, state, nil
}
