package auth

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid credentials")

type Account struct {
	ID       string
	Username string
	Name     string
	Role     string
}

type AccountStore interface {
	Authenticate(ctx context.Context, username, password string) (Account, error)
	// DisplayName resolves a learner id to their display attributes; also
	// satisfies the certificate issuer's Directory.
	DisplayName(ctx context.Context, learnerID string) (string, error)
}

type SQLAccounts struct{ db *sql.DB }

func NewSQLAccounts(db *sql.DB) *SQLAccounts { return &SQLAccounts{db: db} }

func (s *SQLAccounts) Authenticate(ctx context.Context, username, password string) (Account, error) {
	var a Account
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT id,username,name,role,password_hash FROM accounts WHERE username=$1`, username)
	if err := row.Scan(&a.ID, &a.Username, &a.Name, &a.Role, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrBadCredentials
		}
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Account{}, ErrBadCredentials
	}
	return a, nil
}

func (s *SQLAccounts) DisplayName(ctx context.Context, learnerID string) (string, error) {
	var name string
	// dev tokens sometimes carry the username as subject
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM accounts WHERE id=$1 OR username=$1`, learnerID).Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}
