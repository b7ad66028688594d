package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer token issued at login. Logout revokes it; otherwise
// it lapses at ExpiresAt.
type Session struct {
	Entry
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

func NewSession(userID uuid.UUID, ttl time.Duration, now time.Time) *Session {
	return &Session{
		Entry:     NewEntry(now),
		UserID:    userID,
		Token:     uuid.New(),
		ExpiresAt: now.Add(ttl),
	}
}

// IsActive reports whether the session can still authenticate at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

// Revoke ends the session. A session is revoked at most once.
func (s *Session) Revoke(now time.Time) error {
	if s.RevokedAt != nil {
		return ErrNotFound
	}
	s.RevokedAt = &now
	return nil
}
