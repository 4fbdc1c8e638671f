package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlearn/coursecert/internal/assessment"
	auth "github.com/openlearn/coursecert/internal/auth/middleware"
	"github.com/openlearn/coursecert/internal/records"
)

// GetResultHandler serves the learner's stored attempt result for one
// sub-unit plus the state it resolves to. A missing result is 404: "no
// prior attempt" is a normal empty state for the client.
func GetResultHandler(rec records.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		res, err := rec.GetAttemptResult(r.Context(), learnerID,
			chi.URLParam(r, "courseID"), chi.URLParam(r, "moduleID"), chi.URLParam(r, "subUnitID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"result": res,
			"state":  assessment.Outcome(res).String(),
		})
	}
}
