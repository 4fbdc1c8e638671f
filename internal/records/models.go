package records

import "fmt"

// CompletionEntry marks one sub-unit as done. Entries are never removed
// once present.
type CompletionEntry struct {
	CompletedAt int64   `json:"completedAt"`
	Score       float64 `json:"score"`
	Attempts    int     `json:"attempts"`
}

// CompletionRecord is the per-(learner, course) map of completed sub-units.
// FirstCompletedAt is stamped by the first completion and immutable after:
// it becomes the certificate's "completed on" date even if the record is
// touched again later.
type CompletionRecord struct {
	LearnerID        string                     `json:"learner_id"`
	CourseID         string                     `json:"course_id"`
	Completed        map[string]CompletionEntry `json:"completed"` // key: moduleID_subUnitID
	FirstCompletedAt int64                      `json:"first_completed_at,omitempty"`
	VerificationID   string                     `json:"verification_id,omitempty"`
}

// ProgressRecord holds the recomputed completion percentage. Progress is
// never hand-edited; it always equals 100 * |completed keys| / totalSubUnits.
type ProgressRecord struct {
	LearnerID   string  `json:"learner_id"`
	CourseID    string  `json:"course_id"`
	Progress    float64 `json:"progress"`
	EnrolledAt  int64   `json:"enrolled_at"`
	LastUpdated int64   `json:"last_updated"`
}

// AttemptResult is overwritten per re-attempt while Attempts and
// HighestScore only ever grow.
type AttemptResult struct {
	LearnerID      string  `json:"learner_id"`
	CourseID       string  `json:"course_id"`
	ModuleID       string  `json:"module_id"`
	SubUnitID      string  `json:"sub_unit_id"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	TimeTakenSec   int     `json:"time_taken_sec"`
	Attempts       int     `json:"attempts"`
	HighestScore   float64 `json:"highest_score"`
}

// SubUnitKey is the completion-map key for one sub-unit.
func SubUnitKey(moduleID, subUnitID string) string {
	return fmt.Sprintf("%s_%s", moduleID, subUnitID)
}

// ProgressPercent computes the stored progress value. Zero total reads as 0.
func ProgressPercent(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(completed) / float64(total)
}
