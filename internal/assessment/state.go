package assessment

import "github.com/openlearn/coursecert/internal/records"

const (
	// PassThreshold is the minimum score that completes a sub-unit.
	PassThreshold = 75.0
	// MaxAttempts caps retries per sub-unit. The third failure is terminal.
	MaxAttempts = 3
)

// State of one (learner, course, module, sub-unit) assessment.
type State int

const (
	NotAttempted State = iota
	InProgress
	Passed
	RetryableFail
	TerminalFail
)

func (s State) String() string {
	switch s {
	case NotAttempted:
		return "not_attempted"
	case InProgress:
		return "in_progress"
	case Passed:
		return "passed"
	case RetryableFail:
		return "retryable_fail"
	case TerminalFail:
		return "terminal_fail"
	default:
		return "unknown"
	}
}

// CanStart reports whether a new timed session may begin from s.
func (s State) CanStart() bool {
	return s == NotAttempted || s == RetryableFail
}

// Transition resolves a submitted score into the follow-up state.
// attempts counts the submission being resolved.
func Transition(score float64, attempts int) State {
	switch {
	case score >= PassThreshold:
		return Passed
	case attempts < MaxAttempts:
		return RetryableFail
	default:
		return TerminalFail
	}
}

// Outcome classifies a stored attempt result.
func Outcome(r records.AttemptResult) State {
	switch {
	case r.Attempts == 0:
		return NotAttempted
	case r.HighestScore >= PassThreshold:
		return Passed
	case r.Attempts >= MaxAttempts:
		return TerminalFail
	default:
		return RetryableFail
	}
}
