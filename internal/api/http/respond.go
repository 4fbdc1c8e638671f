package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openlearn/coursecert/internal/assessment"
	"github.com/openlearn/coursecert/internal/cert"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/records"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain sentinels onto HTTP statuses: absent entities are
// 404, precondition failures 409, bad payloads 400, the rest 500 (caller
// may retry the whole operation).
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound),
		errors.Is(err, cert.ErrNotFound),
		errors.Is(err, records.ErrNotEnrolled),
		errors.Is(err, records.ErrNoResult),
		errors.Is(err, assessment.ErrNoSession),
		errors.Is(err, assessment.ErrNoQuiz):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, assessment.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, assessment.ErrAlreadyPassed),
		errors.Is(err, assessment.ErrAttemptLimit),
		errors.Is(err, cert.ErrCourseIncomplete):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
