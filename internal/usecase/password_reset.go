package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/repository"
)

// PasswordResetService coordinates reset initiation and completion.
type PasswordResetService struct {
	store             port.Store
	hasher            port.PasswordHasher
	reset             *SingleUseTokenService
	passwordValidator *security.PasswordValidator
	events            port.EventPublisher
	logger            *zap.Logger
	now               func() time.Time
}

// NewPasswordResetService constructs a PasswordResetService.
func NewPasswordResetService(store port.Store, hasher port.PasswordHasher, reset *SingleUseTokenService, validator *security.PasswordValidator, events port.EventPublisher, logger *zap.Logger) *PasswordResetService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PasswordResetService{
		store:             store,
		hasher:            hasher,
		reset:             reset,
		passwordValidator: validator,
		events:            events,
		logger:            logger,
		now:               time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *PasswordResetService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
		s.reset.WithClock(clock)
	}
}

// ResetRequest describes the issued reset artifact. A nil result with a nil
// error means the email is unknown; callers answer identically either way to
// avoid an account-existence oracle.
type ResetRequest struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// RequestReset issues a reset token for the account behind the email, if any.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (*ResetRequest, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	token, expiresAt, err := s.reset.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ResetRequest{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// CompleteReset consumes the reset token and, in one atomic unit, updates the
// password hash, revokes every active session for the user, and writes the two
// audit entries documenting both effects. No reader can observe a subset.
func (s *PasswordResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	if err := s.passwordValidator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var (
		resetUserID     string
		sessionsRevoked int
		changedAt       time.Time
	)

	_, err = s.reset.Consume(ctx, token, func(ctx context.Context, r port.RepositorySet, userID string, at time.Time) error {
		if err := r.Users().UpdatePassword(ctx, userID, passwordHash, at); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		revoked, err := r.Sessions().RevokeAllForUser(ctx, userID, at)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}

		if err := appendAudit(ctx, r, userID, domain.AuditActionPasswordResetSuccess, at); err != nil {
			return err
		}
		if err := appendAudit(ctx, r, userID, domain.AuditActionAllSessionsRevokedReset, at); err != nil {
			return err
		}

		resetUserID = userID
		sessionsRevoked = revoked
		changedAt = at
		return nil
	})
	if err != nil {
		return err
	}

	s.publishPasswordChanged(ctx, resetUserID, changedAt, sessionsRevoked)

	return nil
}

func (s *PasswordResetService) publishPasswordChanged(ctx context.Context, userID string, changedAt time.Time, sessionsRevoked int) {
	if s.events == nil {
		return
	}
	event := domain.PasswordChangedEvent{
		EventID:         uuid.NewString(),
		UserID:          userID,
		ChangedAt:       changedAt,
		SessionsRevoked: sessionsRevoked,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.logger.Warn("publish password changed event", zap.Error(err))
	}
}
