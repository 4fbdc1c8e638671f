package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:coursecert.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/coursecert?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'learner',
  password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  modules_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS course_progress (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  progress REAL NOT NULL DEFAULT 0,
  enrolled_at INTEGER NOT NULL,
  last_updated INTEGER NOT NULL,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS completed_subunits (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  completed_json TEXT NOT NULL,
  first_completed_at INTEGER,
  verification_id TEXT,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS exam_results (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  module_id TEXT NOT NULL,
  subunit_id TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  correct_answers INTEGER NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL DEFAULT 0,
  time_taken_sec INTEGER NOT NULL DEFAULT 0,
  attempts INTEGER NOT NULL DEFAULT 0,
  highest_score REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (learner_id, course_id, module_id, subunit_id)
);

CREATE TABLE IF NOT EXISTS attempt_sessions (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  module_id TEXT NOT NULL,
  subunit_id TEXT NOT NULL,
  time_limit_sec INTEGER NOT NULL,
  started_at INTEGER NOT NULL,
  status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
  verification_id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  learner_name TEXT NOT NULL,
  course_name TEXT NOT NULL,
  completed_at INTEGER NOT NULL,
  issued_at INTEGER NOT NULL,
  UNIQUE (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'learner',
  password_hash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS courses (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  modules_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS course_progress (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  progress DOUBLE PRECISION NOT NULL DEFAULT 0,
  enrolled_at BIGINT NOT NULL,
  last_updated BIGINT NOT NULL,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS completed_subunits (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  completed_json TEXT NOT NULL,
  first_completed_at BIGINT,
  verification_id TEXT,
  PRIMARY KEY (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS exam_results (
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  module_id TEXT NOT NULL,
  subunit_id TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  correct_answers INTEGER NOT NULL DEFAULT 0,
  total_questions INTEGER NOT NULL DEFAULT 0,
  time_taken_sec INTEGER NOT NULL DEFAULT 0,
  attempts INTEGER NOT NULL DEFAULT 0,
  highest_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (learner_id, course_id, module_id, subunit_id)
);

CREATE TABLE IF NOT EXISTS attempt_sessions (
  id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  module_id TEXT NOT NULL,
  subunit_id TEXT NOT NULL,
  time_limit_sec INTEGER NOT NULL,
  started_at BIGINT NOT NULL,
  status TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS certificates (
  verification_id TEXT PRIMARY KEY,
  learner_id TEXT NOT NULL,
  course_id TEXT NOT NULL,
  learner_name TEXT NOT NULL,
  course_name TEXT NOT NULL,
  completed_at BIGINT NOT NULL,
  issued_at BIGINT NOT NULL,
  UNIQUE (learner_id, course_id)
);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
