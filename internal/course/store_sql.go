package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,modules_json FROM courses WHERE id=$1`, id)
	var c Course
	var mjson string
	if err := row.Scan(&c.ID, &c.Title, &mjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	if err := json.Unmarshal([]byte(mjson), &c.Modules); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	mj, err := json.Marshal(c.Modules)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO courses (id,title,modules_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, modules_json=EXCLUDED.modules_json`,
		c.ID, c.Title, string(mj), time.Now().Unix())
	return err
}
