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

// RegistrationService handles new account onboarding and email verification.
type RegistrationService struct {
	store             port.Store
	hasher            port.PasswordHasher
	verification      *SingleUseTokenService
	passwordValidator *security.PasswordValidator
	events            port.EventPublisher
	logger            *zap.Logger
	now               func() time.Time
}

// NewRegistrationService constructs a RegistrationService. The events
// publisher may be nil; lifecycle events are best-effort.
func NewRegistrationService(store port.Store, hasher port.PasswordHasher, verification *SingleUseTokenService, validator *security.PasswordValidator, events port.EventPublisher, logger *zap.Logger) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{
		store:             store,
		hasher:            hasher,
		verification:      verification,
		passwordValidator: validator,
		events:            events,
		logger:            logger,
		now:               time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *RegistrationService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
		s.verification.WithClock(clock)
	}
}

// SignUpResult carries the created account and its verification artifact.
type SignUpResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// SignUp creates an unverified account and issues its verification token.
// The account cannot complete login until the token is consumed.
func (s *RegistrationService) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeakPassword, err)
	}

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, expiresAt, err := s.verification.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.publishRegistered(ctx, user)

	return &SignUpResult{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// ReissueVerification replaces the user's outstanding verification token.
// An already-verified account has nothing to verify and reports ErrUserNotFound
// so the caller's unknown-email handling applies unchanged.
func (s *RegistrationService) ReissueVerification(ctx context.Context, email string) (*SignUpResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user.IsVerified {
		return nil, ErrUserNotFound
	}

	token, expiresAt, err := s.verification.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &SignUpResult{
		User:      user.Sanitized(),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// VerifyEmail consumes a verification token, flipping the account to verified
// exactly once. Token deletion, the user update, and the audit entry commit as
// one atomic unit; a second consumption attempt yields ErrTokenInvalid.
func (s *RegistrationService) VerifyEmail(ctx context.Context, token string) (string, error) {
	var email string

	_, err := s.verification.Consume(ctx, token, func(ctx context.Context, r port.RepositorySet, userID string, at time.Time) error {
		user, err := r.Users().GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		if err := r.Users().MarkVerified(ctx, userID, at); err != nil {
			return fmt.Errorf("mark verified: %w", err)
		}
		email = user.Email
		return appendAudit(ctx, r, userID, domain.AuditActionAccountVerified, at)
	})
	if err != nil {
		return "", err
	}

	return email, nil
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}
	event := domain.UserRegisteredEvent{
		EventID:      uuid.NewString(),
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.events.PublishUserRegistered(ctx, event); err != nil {
		s.logger.Warn("publish user registered event", zap.Error(err))
	}
}
