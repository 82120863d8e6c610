package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/repository"
)

// UserService covers the authenticated account surface: profile, settings,
// and deletion.
type UserService struct {
	store  port.Store
	hasher port.PasswordHasher
	now    func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(store port.Store, hasher port.PasswordHasher) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *UserService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// GetProfile returns the sanitized account view.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	sanitized := user.Sanitized()
	return &sanitized, nil
}

// UpdateSettings applies the supplied preferences, pairing the update with its
// audit entry in one atomic unit.
func (s *UserService) UpdateSettings(ctx context.Context, userID string, settings domain.UserSettings) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	now := s.now().UTC()
	var updated *domain.User

	err := s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		user, err := r.Users().UpdateSettings(ctx, userID, settings, now)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("update settings: %w", err)
		}
		updated = user
		return appendAudit(ctx, r, userID, domain.AuditActionUserSettingsUpdate, now)
	})
	if err != nil {
		return nil, err
	}

	sanitized := updated.Sanitized()
	return &sanitized, nil
}

// DeleteAccount removes the user after re-verifying the password. Sessions,
// tokens, and audit entries cascade at the store level.
func (s *UserService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.store.Users().Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return nil
}
