package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"

	"github.com/everesteng/assessor/internal/model"
)

const adminSessionTTL = 24 * time.Hour

// CreateAdminSession creates a new admin session token.
func (s *Store) CreateAdminSession() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	now := time.Now()
	_, err = s.db.Exec(
		`INSERT INTO admin_sessions (id, created_at, expires_at) VALUES (?, ?, ?)`,
		token, now, now.Add(adminSessionTTL),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

// GetAdminSession returns the session for the given token, or nil if not found/expired.
func (s *Store) GetAdminSession(token string) (*model.AdminSession, error) {
	var sess model.AdminSession
	err := s.db.QueryRow(
		`SELECT id, created_at, expires_at FROM admin_sessions WHERE id = ?`, token,
	).Scan(&sess.ID, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = s.DeleteAdminSession(token)
		return nil, nil
	}
	return &sess, nil
}

// DeleteAdminSession removes a session token.
func (s *Store) DeleteAdminSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM admin_sessions WHERE id = ?`, token)
	return err
}

// CleanupExpiredSessions removes all expired admin sessions.
func (s *Store) CleanupExpiredSessions() error {
	_, err := s.db.Exec(`DELETE FROM admin_sessions WHERE expires_at < ?`, time.Now())
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
