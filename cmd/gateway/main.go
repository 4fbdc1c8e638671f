package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/openlearn/coursecert/internal/api/http"
	"github.com/openlearn/coursecert/internal/assessment"
	"github.com/openlearn/coursecert/internal/audit"
	auth "github.com/openlearn/coursecert/internal/auth/middleware"
	"github.com/openlearn/coursecert/internal/cert"
	"github.com/openlearn/coursecert/internal/config"
	"github.com/openlearn/coursecert/internal/course"
	"github.com/openlearn/coursecert/internal/db"
	"github.com/openlearn/coursecert/internal/rbac"
	"github.com/openlearn/coursecert/internal/records"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	catalog := course.NewSQLStore(dbh)
	rec := records.NewSQLStore(dbh)
	sessions := assessment.NewSQLSessionStore(dbh)
	auditLog := audit.NewSQLLog(dbh)
	accounts := auth.NewSQLAccounts(dbh)

	ctrl := assessment.NewController(catalog, rec, sessions, auditLog, time.Now)
	certs := cert.NewSQLStore(dbh)
	issuer := cert.NewIssuer(certs, catalog, rec, accounts, auditLog, time.Now)
	verifier := cert.NewVerifier(certs)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, accounts))

	// Certificate verification is deliberately public: anyone holding a
	// token may check it.
	r.Get("/verify/{verificationID}", api.VerifyCertificateHandler(verifier))

	// Learner flow (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		pr.With(rbac.Require("course:enroll")).
			Post("/courses/{courseID}/enroll", api.EnrollHandler(catalog, rec))
		pr.With(rbac.Require("progress:view-own")).
			Get("/courses/{courseID}/progress", api.GetProgressHandler(rec))

		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(ctrl))
		pr.With(rbac.Require("attempt:save")).
			Post("/attempts/{attemptID}/answers", api.SaveAnswerHandler(ctrl))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(ctrl))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(ctrl))

		pr.With(rbac.Require("result:view-own")).
			Get("/courses/{courseID}/results/{moduleID}/{subUnitID}", api.GetResultHandler(rec))

		pr.With(rbac.Require("certificate:request")).
			Post("/courses/{courseID}/certificate", api.IssueCertificateHandler(issuer))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
