package domain

import "time"

// TokenPurpose distinguishes the two single-use token specializations.
type TokenPurpose string

const (
	TokenPurposeVerification  TokenPurpose = "verification"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// SingleUseToken is an opaque, expiring, one-per-user value consumed exactly
// once to authorize a sensitive state change. At most one live record exists
// per (user, purpose); issuing again replaces the prior record.
type SingleUseToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the token can still be redeemed at the supplied moment.
func (t SingleUseToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// TwoFactorToken holds the hash of an outstanding step-up code. At most one
// live record exists per user; issuing a new challenge replaces it.
type TwoFactorToken struct {
	ID        string
	UserID    string
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the code window has elapsed.
func (t TwoFactorToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}
