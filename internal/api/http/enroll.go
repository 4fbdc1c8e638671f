package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/openlearn/coursecert/internal/auth/middleware"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/records"
)

// EnrollHandler creates the enrollment together with its zero progress and
// empty completion records. Re-enrolling returns the existing state.
func EnrollHandler(catalog course.Store, rec records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		learnerID := auth.SubjectFromContext(r.Context())
		if _, err := catalog.GetCourse(r.Context(), courseID); err != nil {
			writeErr(w, err)
			return
		}
		p, err := rec.Enroll(r.Context(), learnerID, courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// GetProgressHandler serves the learner's own ProgressRecord.
func GetProgressHandler(rec records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		learnerID := auth.SubjectFromContext(r.Context())
		p, err := rec.GetProgress(r.Context(), learnerID, courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
