package domain

import "time"

// User mirrors the persisted representation in the users table.
type User struct {
	ID                 string
	Email              string
	PasswordHash       string
	IsVerified         bool
	IsTwoFactorEnabled bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Sanitized returns a copy of the user safe to hand to callers outside the engine.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}

// UserSettings carries the mutable account preferences. Nil fields are left untouched.
type UserSettings struct {
	IsTwoFactorEnabled *bool
}
