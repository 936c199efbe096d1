package model

import (
	"database/sql"
	"errors"
	"time"
)

// ErrSessionNotFound covers both missing and expired sessions.
var ErrSessionNotFound = errors.New("session not found or expired")

type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func CreateSession(db *sql.DB, userID int64, token string, expiresAt time.Time) (*Session, error) {
	now := time.Now().UTC()
	res, err := db.Exec(`
		INSERT INTO sessions (user_id, token, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		userID, token, now, expiresAt,
	)
	if err != nil {
		return nil, err
	}
	s := &Session{UserID: userID, Token: token, CreatedAt: now, ExpiresAt: expiresAt}
	s.ID, err = res.LastInsertId()
	return s, err
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, user_id, token, created_at, expires_at
		FROM sessions WHERE token = ?`, token)
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !s.ExpiresAt.After(time.Now().UTC()) {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

// SessionRemainingTTL reports how long the session stays valid. Used to align
// cache entry lifetimes with the session rather than a fixed TTL.
func SessionRemainingTTL(db *sql.DB, token string) (time.Duration, error) {
	s, err := GetSessionByToken(db, token)
	if err != nil {
		return 0, err
	}
	return time.Until(s.ExpiresAt), nil
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteSessionsForUser revokes every session of a user (password change,
// account deletion).
func DeleteSessionsForUser(db *sql.DB, userID int64) (int64, error) {
	res, err := db.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
