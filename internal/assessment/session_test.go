package assessment

import (
	"errors"
	"testing"
	"time"

	"github.com/openlearn/coursecert/internal/course"
)

func fourQuestions() []course.Question {
	qs := make([]course.Question, 4)
	for i := range qs {
		qs[i] = course.Question{Prompt: "q", Options: []string{"a", "b", "c"}, Answer: 0}
	}
	return qs
}

func testKey() AttemptKey {
	return AttemptKey{LearnerID: "u1", CourseID: "c1", ModuleID: "m1", SubUnitID: "s1"}
}

func TestRemainingDerivedFromAnchor(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now := base.Add(200 * time.Second)
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return now })
	if got := s.Remaining(); got != 400*time.Second {
		t.Fatalf("Remaining() = %v, want 400s", got)
	}
	// an expired anchor never goes negative
	now = base.Add(2 * time.Hour)
	if got := s.Remaining(); got != 0 {
		t.Fatalf("Remaining() after expiry = %v, want 0", got)
	}
}

func TestUnansweredCountsAsIncorrect(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return base })
	if err := s.RecordAnswer(0, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordAnswer(1, 2); err != nil { // wrong option
		t.Fatal(err)
	}
	res, first := s.finish()
	if !first {
		t.Fatal("first finish() should grade")
	}
	if res.CorrectAnswers != 1 || res.TotalQuestions != 4 {
		t.Fatalf("got %d/%d correct, want 1/4", res.CorrectAnswers, res.TotalQuestions)
	}
	if res.Score != 25 {
		t.Fatalf("score = %v, want 25", res.Score)
	}
}

func TestFinishGradesExactlyOnce(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return base })
	_ = s.RecordAnswer(0, 0)
	res1, first := s.finish()
	if !first {
		t.Fatal("first finish() should report first=true")
	}
	_ = s.RecordAnswer(1, 0) // must not change anything
	res2, first := s.finish()
	if first {
		t.Fatal("second finish() must be a no-op")
	}
	if res1 != res2 {
		t.Fatalf("results differ: %+v vs %+v", res1, res2)
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return base })
	if err := s.RecordAnswer(9, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad index: got %v, want ErrValidation", err)
	}
	if err := s.RecordAnswer(0, 7); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad option: got %v, want ErrValidation", err)
	}
	s.finish()
	if err := s.RecordAnswer(0, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("answer after submit: got %v, want ErrValidation", err)
	}
}

func TestTimeTakenClampedAtLimit(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	now := base.Add(900 * time.Second) // well past the 600s limit
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return now })
	res, _ := s.finish()
	if res.TimeTakenSec != 600 {
		t.Fatalf("TimeTakenSec = %d, want 600", res.TimeTakenSec)
	}
}

func TestQuestionsWithholdAnswerKeys(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	s := newSession("a1", testKey(), fourQuestions(), base, 600*time.Second, func() time.Time { return base })
	for i, q := range s.Questions() {
		if q.Answer != -1 {
			t.Fatalf("question %d leaks answer key: %d", i, q.Answer)
		}
	}
}
