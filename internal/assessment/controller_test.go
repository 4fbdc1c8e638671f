package assessment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/openlearn/coursecert/internal/audit"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/records"
)

type env struct {
	ctrl    *Controller
	rec     *records.MemoryStore
	catalog course.Store
	sess    SessionStore
	log     *audit.MemLog
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		rec:     records.NewMemoryStore(),
		catalog: course.NewInMemoryStore(),
		sess:    NewMemSessionStore(),
		log:     audit.NewMemLog(),
		now:     time.Unix(1_700_000_000, 0),
	}
	e.ctrl = NewController(e.catalog, e.rec, e.sess, e.log, func() time.Time { return e.now })
	return e
}

func quizOf(n int) *course.Quiz {
	qs := make([]course.Question, n)
	for i := range qs {
		qs[i] = course.Question{
			Prompt:  fmt.Sprintf("q%d", i),
			Options: []string{"a", "b", "c", "d"},
			Answer:  0,
		}
	}
	return &course.Quiz{TimeLimitSec: 600, Questions: qs}
}

// four sub-units, 50 questions each: every correct answer is worth 2%.
func fourUnitCourse() course.Course {
	return course.Course{
		ID:    "go-101",
		Title: "Introduction to Go",
		Modules: []course.Module{
			{ID: "m1", Title: "Basics", SubUnits: []course.SubUnit{
				{ID: "u1", Title: "Syntax", Quiz: quizOf(50)},
				{ID: "u2", Title: "Types", Quiz: quizOf(50)},
			}},
			{ID: "m2", Title: "Concurrency", SubUnits: []course.SubUnit{
				{ID: "u3", Title: "Goroutines", Quiz: quizOf(50)},
				{ID: "u4", Title: "Channels", Quiz: quizOf(50)},
			}},
		},
	}
}

// one sub-unit with a 20-question quiz: every correct answer is worth 5%.
func singleUnitCourse(id string) course.Course {
	return course.Course{
		ID:    id,
		Title: "Single Unit",
		Modules: []course.Module{
			{ID: "m1", Title: "Only", SubUnits: []course.SubUnit{
				{ID: "s1", Title: "The One", Quiz: quizOf(20)},
			}},
		},
	}
}

func (e *env) seed(t *testing.T, c course.Course, learnerID string) {
	t.Helper()
	ctx := context.Background()
	if err := e.catalog.PutCourse(ctx, c); err != nil {
		t.Fatal(err)
	}
	if _, err := e.rec.Enroll(ctx, learnerID, c.ID); err != nil {
		t.Fatal(err)
	}
}

func answerCorrect(t *testing.T, s *Session, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := s.RecordAnswer(i, 0); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPassingScoresDriveProgressTo100(t *testing.T) {
	e := newEnv(t)
	e.seed(t, fourUnitCourse(), "u1")
	ctx := context.Background()

	steps := []struct {
		moduleID, subUnitID string
		correct             int
		wantScore           float64
		wantProgress        float64
	}{
		{"m1", "u1", 40, 80, 25},
		{"m1", "u2", 45, 90, 50},
		{"m2", "u3", 38, 76, 75},
		{"m2", "u4", 50, 100, 100},
	}
	for _, st := range steps {
		key := AttemptKey{LearnerID: "u1", CourseID: "go-101", ModuleID: st.moduleID, SubUnitID: st.subUnitID}
		s, err := e.ctrl.Start(ctx, key)
		if err != nil {
			t.Fatalf("Start(%s/%s): %v", st.moduleID, st.subUnitID, err)
		}
		answerCorrect(t, s, st.correct)
		res, state, err := e.ctrl.Submit(ctx, s.ID)
		s.Close()
		if err != nil {
			t.Fatal(err)
		}
		if state != Passed {
			t.Fatalf("state = %v, want Passed", state)
		}
		if res.Score != st.wantScore || res.Attempts != 1 {
			t.Fatalf("result = score %v attempts %d, want score %v attempts 1", res.Score, res.Attempts, st.wantScore)
		}
		p, err := e.rec.GetProgress(ctx, "u1", "go-101")
		if err != nil {
			t.Fatal(err)
		}
		if p.Progress != st.wantProgress {
			t.Fatalf("progress after %s/%s = %v, want exactly %v", st.moduleID, st.subUnitID, p.Progress, st.wantProgress)
		}
	}

	// submission and completion events for each of the four passes
	var submitted, completed int
	for _, ev := range e.log.Events() {
		switch ev.Type {
		case audit.EventAttemptSubmitted:
			submitted++
		case audit.EventSubUnitCompleted:
			completed++
		}
	}
	if submitted != 4 || completed != 4 {
		t.Fatalf("audit log: %d submitted, %d completed, want 4 and 4", submitted, completed)
	}
}

func TestThreeFailuresAreTerminal(t *testing.T) {
	e := newEnv(t)
	e.seed(t, singleUnitCourse("c2"), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "c2", ModuleID: "m1", SubUnitID: "s1"}

	attempts := []struct {
		correct     int
		wantScore   float64
		wantHighest float64
		wantState   State
	}{
		{12, 60, 60, RetryableFail},
		{13, 65, 65, RetryableFail},
		{14, 70, 70, TerminalFail},
	}
	for i, at := range attempts {
		s, err := e.ctrl.Start(ctx, key)
		if err != nil {
			t.Fatalf("attempt %d Start: %v", i+1, err)
		}
		answerCorrect(t, s, at.correct)
		res, state, err := e.ctrl.Submit(ctx, s.ID)
		s.Close()
		if err != nil {
			t.Fatal(err)
		}
		if state != at.wantState {
			t.Fatalf("attempt %d: state %v, want %v", i+1, state, at.wantState)
		}
		if res.Attempts != i+1 {
			t.Fatalf("attempt %d: attempts %d, want %d", i+1, res.Attempts, i+1)
		}
		if res.Score != at.wantScore || res.HighestScore != at.wantHighest {
			t.Fatalf("attempt %d: score %v highest %v, want %v / %v",
				i+1, res.Score, res.HighestScore, at.wantScore, at.wantHighest)
		}
	}

	if _, err := e.ctrl.Start(ctx, key); !errors.Is(err, ErrAttemptLimit) {
		t.Fatalf("fourth Start: got %v, want ErrAttemptLimit", err)
	}
	// progress untouched by failures
	p, _ := e.rec.GetProgress(ctx, "u1", "c2")
	if p.Progress != 0 {
		t.Fatalf("progress = %v, want 0", p.Progress)
	}
}

func TestStartRefusedAfterPass(t *testing.T) {
	e := newEnv(t)
	e.seed(t, singleUnitCourse("c3"), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "c3", ModuleID: "m1", SubUnitID: "s1"}

	s, err := e.ctrl.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	answerCorrect(t, s, 20)
	if _, state, err := e.ctrl.Submit(ctx, s.ID); err != nil || state != Passed {
		t.Fatalf("Submit: state %v err %v", state, err)
	}
	s.Close()

	if _, err := e.ctrl.Start(ctx, key); !errors.Is(err, ErrAlreadyPassed) {
		t.Fatalf("got %v, want ErrAlreadyPassed", err)
	}
}

func TestStartRequiresEnrollment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if err := e.catalog.PutCourse(ctx, singleUnitCourse("c4")); err != nil {
		t.Fatal(err)
	}
	key := AttemptKey{LearnerID: "ghost", CourseID: "c4", ModuleID: "m1", SubUnitID: "s1"}
	if _, err := e.ctrl.Start(ctx, key); !errors.Is(err, records.ErrNotEnrolled) {
		t.Fatalf("got %v, want ErrNotEnrolled", err)
	}
}

func TestResumeKeepsAnchor(t *testing.T) {
	e := newEnv(t)
	e.seed(t, singleUnitCourse("c5"), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "c5", ModuleID: "m1", SubUnitID: "s1"}

	s1, err := e.ctrl.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	s1.Close()

	// 100s later, a fresh process resumes from the persisted anchor
	e.now = e.now.Add(100 * time.Second)
	ctrl2 := NewController(e.catalog, e.rec, e.sess, e.log, func() time.Time { return e.now })
	s2, err := ctrl2.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if s2.ID != s1.ID {
		t.Fatalf("resume minted a new attempt: %s vs %s", s2.ID, s1.ID)
	}
	if !s2.StartedAt.Equal(s1.StartedAt) {
		t.Fatalf("anchor moved: %v vs %v", s2.StartedAt, s1.StartedAt)
	}
	if got := s2.Remaining(); got != 500*time.Second {
		t.Fatalf("Remaining() = %v, want 500s", got)
	}
}

func TestExpiredAnchorForcesSubmission(t *testing.T) {
	e := newEnv(t)
	e.seed(t, singleUnitCourse("c6"), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "c6", ModuleID: "m1", SubUnitID: "s1"}

	// anchor persisted 700s ago against a 600s limit
	if err := e.sess.Put(ctx, SessionRow{
		ID:           "stale-1",
		Key:          key,
		TimeLimitSec: 600,
		StartedAt:    e.now.Add(-700 * time.Second).Unix(),
		Status:       "in_progress",
	}); err != nil {
		t.Fatal(err)
	}

	s, err := e.ctrl.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Submitted() {
		t.Fatal("expired session must be auto-submitted on resume")
	}
	res, err := e.rec.GetAttemptResult(ctx, "u1", "c6", "m1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 0 || res.Attempts != 1 || res.TimeTakenSec != 600 {
		t.Fatalf("forced result = %+v, want score 0, attempts 1, timeTaken 600", res)
	}
}

func TestCommitFailureLeavesNoPartialState(t *testing.T) {
	e := newEnv(t)
	e.seed(t, fourUnitCourse(), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "go-101", ModuleID: "m1", SubUnitID: "u1"}

	s, err := e.ctrl.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	answerCorrect(t, s, 40) // 80%, would pass

	e.rec.FailNextCommit = errors.New("store unavailable")
	if _, _, err := e.ctrl.Submit(ctx, s.ID); err == nil {
		t.Fatal("Submit should surface the commit failure")
	}
	if p, _ := e.rec.GetProgress(ctx, "u1", "go-101"); p.Progress != 0 {
		t.Fatalf("progress = %v after failed commit, want 0", p.Progress)
	}
	if _, err := e.rec.GetAttemptResult(ctx, "u1", "go-101", "m1", "u1"); !errors.Is(err, records.ErrNoResult) {
		t.Fatalf("attempt result leaked through failed commit: %v", err)
	}

	// the whole submission is retryable
	res, state, err := e.ctrl.Submit(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state != Passed || res.Attempts != 1 {
		t.Fatalf("retried submit: state %v attempts %d, want Passed/1", state, res.Attempts)
	}
	if p, _ := e.rec.GetProgress(ctx, "u1", "go-101"); p.Progress != 25 {
		t.Fatalf("progress = %v, want 25", p.Progress)
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	e := newEnv(t)
	e.seed(t, singleUnitCourse("c7"), "u1")
	ctx := context.Background()
	key := AttemptKey{LearnerID: "u1", CourseID: "c7", ModuleID: "m1", SubUnitID: "s1"}

	s, err := e.ctrl.Start(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	answerCorrect(t, s, 16) // 80%

	res1, state1, err := e.ctrl.Submit(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	// a late expiry tick or a double click must not add an attempt
	res2, state2, err := e.ctrl.Submit(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state1 != Passed || state2 != Passed {
		t.Fatalf("states %v/%v, want Passed", state1, state2)
	}
	if res1.Attempts != 1 || res2.Attempts != 1 {
		t.Fatalf("attempts %d/%d, want 1/1", res1.Attempts, res2.Attempts)
	}
	if p, _ := e.rec.GetProgress(ctx, "u1", "c7"); p.Progress != 100 {
		t.Fatalf("progress = %v, want 100", p.Progress)
	}
}
