package assessment

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/openlearn/coursecert/internal/course"
)

var (
	ErrAlreadyPassed = errors.New("sub-unit already passed")
	ErrAttemptLimit  = errors.New("maximum attempts reached")
	ErrValidation    = errors.New("invalid attempt payload")
	ErrNoQuiz        = errors.New("sub-unit has no quiz")
	ErrNoSession     = errors.New("attempt not found")
)

// AttemptKey identifies one assessment slot.
type AttemptKey struct {
	LearnerID string
	CourseID  string
	ModuleID  string
	SubUnitID string
}

func (k AttemptKey) valid() bool {
	return k.LearnerID != "" && k.CourseID != "" && k.ModuleID != "" && k.SubUnitID != ""
}

// Result of one graded attempt.
type Result struct {
	Score          float64
	CorrectAnswers int
	TotalQuestions int
	TimeTakenSec   int
}

// Session is one attempt at a sub-unit quiz under a time budget. The start
// instant is persisted once per attempt; remaining time is always derived
// from that anchor, so a reload or process restart cannot reset the clock.
type Session struct {
	ID        string
	Key       AttemptKey
	StartedAt time.Time
	TimeLimit time.Duration

	now func() time.Time

	mu        sync.Mutex
	questions []course.Question
	answers   map[int]int // question index -> selected option
	graded    bool
	recorded  bool
	result    Result
	timer     *time.Timer

	// serializes grading + persistence in Controller.Submit
	submitMu sync.Mutex
}

func newSession(id string, key AttemptKey, qs []course.Question, startedAt time.Time, limit time.Duration, now func() time.Time) *Session {
	return &Session{
		ID:        id,
		Key:       key,
		StartedAt: startedAt,
		TimeLimit: limit,
		now:       now,
		questions: qs,
		answers:   map[int]int{},
	}
}

// Remaining derives the time left from the persisted anchor.
func (s *Session) Remaining() time.Duration {
	rem := s.StartedAt.Add(s.TimeLimit).Sub(s.now())
	if rem < 0 {
		return 0
	}
	return rem
}

// RecordAnswer overwrites the selection for a question. Answers live in
// memory only until submission.
func (s *Session) RecordAnswer(questionIndex, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graded {
		return fmt.Errorf("%w: attempt already submitted", ErrValidation)
	}
	if questionIndex < 0 || questionIndex >= len(s.questions) {
		return fmt.Errorf("%w: question index %d out of range", ErrValidation, questionIndex)
	}
	if option < 0 || option >= len(s.questions[questionIndex].Options) {
		return fmt.Errorf("%w: option %d out of range", ErrValidation, option)
	}
	s.answers[questionIndex] = option
	return nil
}

// finish grades the session exactly once; later calls return the first
// result with first=false. Unanswered questions count as incorrect.
func (s *Session) finish() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graded {
		return s.result, false
	}
	correct := 0
	for i, q := range s.questions {
		if sel, ok := s.answers[i]; ok && sel == q.Answer {
			correct++
		}
	}
	total := len(s.questions)
	score := 0.0
	if total > 0 {
		score = 100 * float64(correct) / float64(total)
	}
	rem := s.StartedAt.Add(s.TimeLimit).Sub(s.now())
	if rem < 0 {
		rem = 0
	}
	s.result = Result{
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: total,
		TimeTakenSec:   int((s.TimeLimit - rem).Seconds()),
	}
	s.graded = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	return s.result, true
}

func (s *Session) markRecorded() {
	s.mu.Lock()
	s.recorded = true
	s.mu.Unlock()
}

func (s *Session) isRecorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

// Submitted reports whether the session has been graded.
func (s *Session) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graded
}

// armExpiry schedules the auto-submit against the anchored deadline.
// No-op when the session is already graded.
func (s *Session) armExpiry(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graded || s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(d, fn)
}

// Close cancels the expiry timer on teardown. The persisted anchor keeps
// the deadline for a later resume.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Answers returns a copy of the current selections.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Questions returns the question set with answer keys withheld.
func (s *Session) Questions() []course.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]course.Question, len(s.questions))
	copy(out, s.questions)
	for i := range out {
		out[i].Answer = -1
	}
	return out
}
