package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlearn/coursecert/internal/assessment"
	auth "github.com/openlearn/coursecert/internal/auth/middleware"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/rbac"
)

type attemptView struct {
	ID           string            `json:"id"`
	CourseID     string            `json:"course_id"`
	ModuleID     string            `json:"module_id"`
	SubUnitID    string            `json:"sub_unit_id"`
	TimeLimitSec int               `json:"time_limit_sec"`
	RemainingSec int               `json:"remaining_sec"`
	Submitted    bool              `json:"submitted"`
	Answers      map[int]int       `json:"answers"`
	Questions    []course.Question `json:"questions"`
}

func viewOf(s *assessment.Session) attemptView {
	return attemptView{
		ID:           s.ID,
		CourseID:     s.Key.CourseID,
		ModuleID:     s.Key.ModuleID,
		SubUnitID:    s.Key.SubUnitID,
		TimeLimitSec: int(s.TimeLimit.Seconds()),
		RemainingSec: int(s.Remaining().Seconds()),
		Submitted:    s.Submitted(),
		Answers:      s.Answers(),
		Questions:    s.Questions(),
	}
}

// CreateAttemptHandler starts (or resumes) a timed session for one
// sub-unit. The start instant persists, so reopening never resets the
// clock.
func CreateAttemptHandler(ctrl *assessment.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID  string `json:"course_id"`
			ModuleID  string `json:"module_id"`
			SubUnitID string `json:"sub_unit_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		key := assessment.AttemptKey{
			LearnerID: auth.SubjectFromContext(r.Context()),
			CourseID:  req.CourseID,
			ModuleID:  req.ModuleID,
			SubUnitID: req.SubUnitID,
		}
		s, err := ctrl.Start(r.Context(), key)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}

// SaveAnswerHandler records one selection in the live session. Nothing is
// durable until submission.
func SaveAnswerHandler(ctrl *assessment.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(ctrl, w, r)
		if !ok {
			return
		}
		var req struct {
			QuestionIndex  int `json:"question_index"`
			SelectedOption int `json:"selected_option"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", 400)
			return
		}
		if err := s.RecordAnswer(req.QuestionIndex, req.SelectedOption); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}

// SubmitAttemptHandler grades the session once and records the outcome.
func SubmitAttemptHandler(ctrl *assessment.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ownedSession(ctrl, w, r); !ok {
			return
		}
		result, state, err := ctrl.Submit(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result": result,
			"state":  state.String(),
			"passed": state == assessment.Passed,
		})
	}
}

func GetAttemptHandler(ctrl *assessment.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := ownedSession(ctrl, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}

// ownedSession loads the session and checks the caller owns it (admins may
// view any).
func ownedSession(ctrl *assessment.Controller, w http.ResponseWriter, r *http.Request) (*assessment.Session, bool) {
	s, err := ctrl.Session(chi.URLParam(r, "attemptID"))
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	sub := auth.SubjectFromContext(r.Context())
	if s.Key.LearnerID != sub && rbac.RoleFromContext(r.Context()) != "admin" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, false
	}
	return s, true
}
