package assessment

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// SessionRow is the persisted anchor of a timed attempt. Only the start
// instant and limit are durable; answers stay in memory until submission.
type SessionRow struct {
	ID           string
	Key          AttemptKey
	TimeLimitSec int
	StartedAt    int64
	Status       string // in_progress | submitted
}

type SessionStore interface {
	// GetOpen returns the in-progress row for key, or ErrNoSession.
	GetOpen(ctx context.Context, key AttemptKey) (SessionRow, error)
	Put(ctx context.Context, row SessionRow) error
	MarkSubmitted(ctx context.Context, id string) error
}

type SQLSessionStore struct{ db *sql.DB }

func NewSQLSessionStore(db *sql.DB) *SQLSessionStore { return &SQLSessionStore{db: db} }

func (s *SQLSessionStore) GetOpen(ctx context.Context, key AttemptKey) (SessionRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,time_limit_sec,started_at,status FROM attempt_sessions
		WHERE learner_id=$1 AND course_id=$2 AND module_id=$3 AND subunit_id=$4 AND status='in_progress'`,
		key.LearnerID, key.CourseID, key.ModuleID, key.SubUnitID)
	r := SessionRow{Key: key}
	if err := row.Scan(&r.ID, &r.TimeLimitSec, &r.StartedAt, &r.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionRow{}, ErrNoSession
		}
		return SessionRow{}, err
	}
	return r, nil
}

func (s *SQLSessionStore) Put(ctx context.Context, row SessionRow) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempt_sessions
		(id,learner_id,course_id,module_id,subunit_id,time_limit_sec,started_at,status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO NOTHING`,
		row.ID, row.Key.LearnerID, row.Key.CourseID, row.Key.ModuleID, row.Key.SubUnitID,
		row.TimeLimitSec, row.StartedAt, row.Status)
	return err
}

func (s *SQLSessionStore) MarkSubmitted(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE attempt_sessions SET status='submitted' WHERE id=$1`, id)
	return err
}

type memSessionStore struct {
	mu   sync.Mutex
	rows map[string]SessionRow // by id
}

func NewMemSessionStore() SessionStore {
	return &memSessionStore{rows: map[string]SessionRow{}}
}

func (m *memSessionStore) GetOpen(_ context.Context, key AttemptKey) (SessionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Key == key && r.Status == "in_progress" {
			return r, nil
		}
	}
	return SessionRow{}, ErrNoSession
}

func (m *memSessionStore) Put(_ context.Context, row SessionRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[row.ID]; !ok {
		m.rows[row.ID] = row
	}
	return nil
}

func (m *memSessionStore) MarkSubmitted(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[id]; ok {
		r.Status = "submitted"
		m.rows[id] = r
	}
	return nil
}
