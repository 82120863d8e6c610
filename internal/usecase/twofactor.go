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

const (
	twoFactorCodeLength = 6
	defaultTwoFactorTTL = 5 * time.Minute
)

// TwoFactorService issues and verifies the numeric step-up challenge. One
// outstanding code per user; issuing replaces any prior code.
type TwoFactorService struct {
	store  port.Store
	hasher port.PasswordHasher
	ttl    time.Duration
	now    func() time.Time
}

// NewTwoFactorService constructs a TwoFactorService.
func NewTwoFactorService(store port.Store, hasher port.PasswordHasher, ttl time.Duration) *TwoFactorService {
	if ttl <= 0 {
		ttl = defaultTwoFactorTTL
	}
	return &TwoFactorService{
		store:  store,
		hasher: hasher,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *TwoFactorService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Issue generates a 6-digit code, stores only its hash with a short expiry,
// and returns the plaintext solely for out-of-band delivery. Any prior
// outstanding code for the user is replaced.
func (s *TwoFactorService) Issue(ctx context.Context, userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}

	code, err := security.GenerateNumericCode(twoFactorCodeLength)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate code: %w", err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("hash code: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	record := domain.TwoFactorToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	err = s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		if err := r.TwoFactorTokens().Upsert(ctx, record); err != nil {
			return fmt.Errorf("store two-factor token: %w", err)
		}
		return appendAudit(ctx, r, userID, domain.AuditActionTwoFactorCodeSend, now)
	})
	if err != nil {
		return "", time.Time{}, err
	}

	return code, expiresAt, nil
}

// Verify checks the candidate against the user's outstanding code. An expired
// record is deleted lazily. A hash mismatch leaves the record intact so the
// user can retry until expiry. Success consumes the record and audits it in
// the same atomic unit; only then may a session be minted.
func (s *TwoFactorService) Verify(ctx context.Context, userID, candidate string) (bool, error) {
	if userID == "" || candidate == "" {
		return false, nil
	}

	record, err := s.store.TwoFactorTokens().GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup two-factor token: %w", err)
	}

	now := s.now().UTC()
	if record.IsExpired(now) {
		if err := s.store.TwoFactorTokens().Delete(ctx, record.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return false, fmt.Errorf("delete expired two-factor token: %w", err)
		}
		return false, nil
	}

	match, err := s.hasher.Verify(candidate, record.CodeHash)
	if err != nil {
		return false, fmt.Errorf("verify code: %w", err)
	}
	if !match {
		return false, nil
	}

	err = s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		if err := r.TwoFactorTokens().Delete(ctx, record.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// A concurrent verification consumed it first.
				return ErrInvalidOrExpiredCode
			}
			return fmt.Errorf("consume two-factor token: %w", err)
		}
		return appendAudit(ctx, r, userID, domain.AuditActionTwoFactorVerifySuccess, now)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredCode) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
