package usecase

import "errors"

// Engine-level failure taxonomy. Every flow resolves to one of these
// sentinels; ambiguous cases (unknown email vs wrong password, unknown vs
// expired single-use token) deliberately share a single value so the
// anti-enumeration guarantee holds by construction.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken indicates the signup email is already registered.
	ErrEmailTaken = errors.New("email already taken")
	// ErrAccountNotVerified indicates login before email verification.
	ErrAccountNotVerified = errors.New("account is not verified")
	// ErrInvalidOrExpiredCode indicates a failed step-up code verification.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired two-factor code")
	// ErrTokenInvalid covers unknown and expired single-use tokens alike.
	ErrTokenInvalid = errors.New("invalid or expired token")
	// ErrInvalidSession indicates refresh/logout with an unknown or revoked token.
	ErrInvalidSession = errors.New("invalid session")
	// ErrSessionNotFound indicates a rotation target that no longer resolves
	// to a non-revoked session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound indicates a lookup against a missing account.
	ErrUserNotFound = errors.New("user not found")
	// ErrWeakPassword indicates the candidate password failed policy checks.
	ErrWeakPassword = errors.New("password does not meet complexity requirements")
	// ErrDeliveryFailure indicates an out-of-band notification could not be
	// sent. The state change it announces has already committed.
	ErrDeliveryFailure = errors.New("notification delivery failed")
)
