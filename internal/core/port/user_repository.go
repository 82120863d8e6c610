package port

import (
	"context"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// UserRepository exposes persistence behavior for users.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// MarkVerified flips is_verified to true. The transition happens at most
	// once per user; repeated calls are harmless.
	MarkVerified(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, at time.Time) error
	UpdateSettings(ctx context.Context, id string, settings domain.UserSettings, at time.Time) (*domain.User, error)
	// Delete removes the user; sessions, tokens, and audit entries cascade at
	// the store level.
	Delete(ctx context.Context, id string) error
}
