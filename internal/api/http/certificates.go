package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/openlearn/coursecert/internal/auth/middleware"
	"github.com/openlearn/coursecert/internal/cert"
)

// IssueCertificateHandler mints or returns the learner's certificate for a
// completed course. Repeated requests return the same verification id.
func IssueCertificateHandler(issuer *cert.Issuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learnerID := auth.SubjectFromContext(r.Context())
		c, err := issuer.Issue(r.Context(), learnerID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

// VerifyCertificateHandler is the public lookup by verification id. No
// authentication: anyone holding a token may check it.
func VerifyCertificateHandler(verifier *cert.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := verifier.Verify(r.Context(), chi.URLParam(r, "verificationID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}
