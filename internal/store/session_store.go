package store

import (
	"context"
	"time"

	"household/internal/models"
)

type SessionStore struct {
	db DB
}

func NewSessionStore(db DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, session models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, session.Token, session.UserID, session.ExpiresAt)
	return err
}

// GetActive returns sql.ErrNoRows for unknown or expired tokens.
func (s *SessionStore) GetActive(ctx context.Context, token string, now time.Time) (models.Session, error) {
	var row models.Session
	err := s.db.GetContext(ctx, &row, `
		SELECT token, user_id, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > $2
	`, token, now)
	if err != nil {
		return models.Session{}, err
	}
	return row, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return rowsAffected(s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now))
}
