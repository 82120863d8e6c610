package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/repository"
)

const singleUseTokenBytes = 32

// SingleUseTokenService implements the issue/consume pattern shared by email
// verification and password reset: one live high-entropy token per user,
// replaced on re-issue, deleted on consumption or lazy expiry detection.
type SingleUseTokenService struct {
	store       port.Store
	purpose     domain.TokenPurpose
	issueAction domain.AuditAction
	ttl         time.Duration
	now         func() time.Time
}

// NewVerificationTokenService returns the specialization for email verification.
func NewVerificationTokenService(store port.Store, ttl time.Duration) *SingleUseTokenService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SingleUseTokenService{
		store:       store,
		purpose:     domain.TokenPurposeVerification,
		issueAction: domain.AuditActionVerificationEmailSent,
		ttl:         ttl,
		now:         time.Now,
	}
}

// NewPasswordResetTokenService returns the specialization for password reset.
func NewPasswordResetTokenService(store port.Store, ttl time.Duration) *SingleUseTokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SingleUseTokenService{
		store:       store,
		purpose:     domain.TokenPurposePasswordReset,
		issueAction: domain.AuditActionPasswordResetRequest,
		ttl:         ttl,
		now:         time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *SingleUseTokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue generates an opaque token and upserts the user's single live record
// for this purpose, pairing the write with the purpose's audit action.
func (s *SingleUseTokenService) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}

	token, err := security.GenerateOpaqueToken(singleUseTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	record := domain.SingleUseToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Purpose:   s.purpose,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	err = s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		if err := r.SingleUseTokens().Upsert(ctx, record); err != nil {
			return fmt.Errorf("store %s token: %w", s.purpose, err)
		}
		return appendAudit(ctx, r, userID, s.issueAction, now)
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return token, expiresAt, nil
}

// Consume resolves the token, deletes it, and runs apply within the same
// atomic unit: delete + caller mutations + audit writes commit or roll back
// together. Unknown and expired tokens both yield ErrTokenInvalid; an expired
// record is deleted lazily (the cleanup commits even though the caller sees
// the failure).
func (s *SingleUseTokenService) Consume(ctx context.Context, token string, apply func(ctx context.Context, r port.RepositorySet, userID string, at time.Time) error) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}

	var (
		userID  string
		invalid bool
	)

	err := s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		record, err := r.SingleUseTokens().GetByToken(ctx, s.purpose, token)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				invalid = true
				return nil
			}
			return fmt.Errorf("lookup %s token: %w", s.purpose, err)
		}

		now := s.now().UTC()
		if record.IsExpired(now) {
			if err := r.SingleUseTokens().Delete(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("delete expired %s token: %w", s.purpose, err)
			}
			invalid = true
			return nil
		}

		if err := r.SingleUseTokens().Delete(ctx, record.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Lost a race against a concurrent consumption.
				invalid = true
				return nil
			}
			return fmt.Errorf("consume %s token: %w", s.purpose, err)
		}

		userID = record.UserID
		return apply(ctx, r, record.UserID, now)
	})
	if err != nil {
		return "", err
	}
	if invalid {
		return "", ErrTokenInvalid
	}

	return userID, nil
}
