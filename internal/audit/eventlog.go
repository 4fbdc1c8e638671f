package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAttemptSubmitted  = "AttemptSubmitted"
	EventSubUnitCompleted  = "SubUnitCompleted"
	EventCertificateIssued = "CertificateIssued"
)

type Event struct {
	Seq       int64
	Type      string
	Key       string // natural key, e.g. attempt id or verification id
	DataJSON  string
	CreatedAt int64
}

// Log is an append-only record of the state changes that matter:
// submissions, completions and certificate issuance.
type Log interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type SQLLog struct{ db *sql.DB }

func NewSQLLog(db *sql.DB) *SQLLog { return &SQLLog{db: db} }

func (l *SQLLog) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// MemLog collects events in memory, for tests and the offline profile.
type MemLog struct {
	mu     sync.Mutex
	events []Event
}

func NewMemLog() *MemLog { return &MemLog{} }

func (l *MemLog) Append(_ context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{
		Seq:       int64(len(l.events) + 1),
		Type:      typ,
		Key:       key,
		DataJSON:  string(buf),
		CreatedAt: time.Now().Unix(),
	})
	return nil
}

func (l *MemLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
