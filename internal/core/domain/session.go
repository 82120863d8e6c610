package domain

import "time"

// Session represents one refresh-token lineage bound to a device/login.
//
// TokenHash always holds the SHA-256 hash of the most recently issued refresh
// token for the lineage; rotation replaces it and increments RotationCounter in
// the same atomic unit. Revocation is one-way.
type Session struct {
	ID              string
	UserID          string
	TokenHash       string
	RotationCounter int64
	Revoked         bool
	IP              *string
	UserAgent       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActive reports whether the session can still be presented for rotation or logout.
func (s Session) IsActive() bool {
	return !s.Revoked
}

// Revoke marks the session as revoked. Returns true when the session changed state.
func (s *Session) Revoke() bool {
	if s.Revoked {
		return false
	}
	s.Revoked = true
	return true
}
