package assessment

import (
	"testing"

	"github.com/openlearn/coursecert/internal/records"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name     string
		score    float64
		attempts int
		want     State
	}{
		{"pass at threshold", 75, 1, Passed},
		{"pass above threshold", 100, 3, Passed},
		{"fail with retries left", 60, 1, RetryableFail},
		{"fail on second attempt", 74.9, 2, RetryableFail},
		{"fail on last attempt", 70, 3, TerminalFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Transition(tc.score, tc.attempts); got != tc.want {
				t.Fatalf("Transition(%v, %d) = %v, want %v", tc.score, tc.attempts, got, tc.want)
			}
		})
	}
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		name string
		r    records.AttemptResult
		want State
	}{
		{"never attempted", records.AttemptResult{}, NotAttempted},
		{"passed earlier", records.AttemptResult{Attempts: 1, HighestScore: 80}, Passed},
		{"retryable", records.AttemptResult{Attempts: 2, HighestScore: 60, Score: 60}, RetryableFail},
		{"terminal", records.AttemptResult{Attempts: 3, HighestScore: 70, Score: 70}, TerminalFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Outcome(tc.r); got != tc.want {
				t.Fatalf("Outcome(%+v) = %v, want %v", tc.r, got, tc.want)
			}
		})
	}
}

func TestCanStart(t *testing.T) {
	for s, want := range map[State]bool{
		NotAttempted:  true,
		RetryableFail: true,
		InProgress:    false,
		Passed:        false,
		TerminalFail:  false,
	} {
		if got := s.CanStart(); got != want {
			t.Errorf("%v.CanStart() = %v, want %v", s, got, want)
		}
	}
}
