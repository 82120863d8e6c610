package port

import (
	"context"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// SingleUseTokenRepository manages verification and password-reset token slots.
//
// Each user owns at most one live record per purpose; Upsert replaces any
// prior record for the same (user, purpose) pair rather than stacking.
type SingleUseTokenRepository interface {
	Upsert(ctx context.Context, token domain.SingleUseToken) error
	GetByToken(ctx context.Context, purpose domain.TokenPurpose, token string) (*domain.SingleUseToken, error)
	Delete(ctx context.Context, id string) error
}

// TwoFactorTokenRepository manages the one outstanding step-up code per user.
type TwoFactorTokenRepository interface {
	Upsert(ctx context.Context, token domain.TwoFactorToken) error
	GetByUserID(ctx context.Context, userID string) (*domain.TwoFactorToken, error)
	Delete(ctx context.Context, id string) error
}
