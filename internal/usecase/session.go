package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/repository"
)

// SessionService tracks refresh-token lineages per user: create, rotate,
// revoke-one, revoke-all. Every mutation commits in one atomic unit with its
// audit entry.
type SessionService struct {
	store  port.Store
	codec  *security.TokenCodec
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(store port.Store, codec *security.TokenCodec, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:  store,
		codec:  codec,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the internal clock, used in tests.
func (s *SessionService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Create inserts a new session with a freshly issued refresh token and a
// rotation counter of zero, pairing the insert with a login audit entry.
// The raw refresh token is returned alongside; only its hash is persisted.
func (s *SessionService) Create(ctx context.Context, userID string, ip, userAgent *string) (*domain.Session, string, error) {
	if userID == "" {
		return nil, "", fmt.Errorf("user id is required")
	}

	refreshToken, err := s.codec.Issue(userID, security.TokenKindRefresh)
	if err != nil {
		return nil, "", fmt.Errorf("issue refresh token: %w", err)
	}

	now := s.now().UTC()
	session := domain.Session{
		ID:              uuid.NewString(),
		UserID:          userID,
		TokenHash:       security.HashToken(refreshToken),
		RotationCounter: 0,
		Revoked:         false,
		IP:              ip,
		UserAgent:       userAgent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		if err := r.Sessions().Create(ctx, session); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		return appendAudit(ctx, r, userID, domain.AuditActionLogin, now)
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Debug("session created", zap.String("session_id", session.ID))

	return &session, refreshToken, nil
}

// Rotate replaces the session's refresh token and bumps the rotation counter,
// committing the swap and the audit entry together. A session that was revoked
// or rotated concurrently surfaces as ErrSessionNotFound.
func (s *SessionService) Rotate(ctx context.Context, session *domain.Session) (string, error) {
	if session == nil || session.ID == "" {
		return "", fmt.Errorf("session is required")
	}

	refreshToken, err := s.codec.Issue(session.UserID, security.TokenKindRefresh)
	if err != nil {
		return "", fmt.Errorf("issue refresh token: %w", err)
	}

	now := s.now().UTC()
	newHash := security.HashToken(refreshToken)

	err = s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		counter, err := r.Sessions().Rotate(ctx, session.ID, session.TokenHash, newHash, now)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("rotate session: %w", err)
		}
		session.TokenHash = newHash
		session.RotationCounter = counter
		return appendAudit(ctx, r, session.UserID, domain.AuditActionRefreshToken, now)
	})
	if err != nil {
		return "", err
	}

	return refreshToken, nil
}

// RevokeOne marks the session matching the supplied refresh token as revoked.
// Logout is idempotent: an unknown or already-revoked token is a no-op.
func (s *SessionService) RevokeOne(ctx context.Context, userID, refreshToken string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	now := s.now().UTC()
	tokenHash := security.HashToken(refreshToken)

	return s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		if err := r.Sessions().RevokeOne(ctx, userID, tokenHash, now); err != nil {
			return fmt.Errorf("revoke session: %w", err)
		}
		return appendAudit(ctx, r, userID, domain.AuditActionLogoutSingleDevice, now)
	})
}

// RevokeAll marks every non-revoked session for the user as revoked in one batch.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("user id is required")
	}

	now := s.now().UTC()
	var revoked int

	err := s.store.WithinTx(ctx, func(r port.RepositorySet) error {
		count, err := r.Sessions().RevokeAllForUser(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		revoked = count
		return appendAudit(ctx, r, userID, domain.AuditActionLogoutAllDevices, now)
	})
	if err != nil {
		return 0, err
	}

	return revoked, nil
}

// FindActiveByToken resolves the non-revoked session whose current token
// matches the supplied raw refresh token. Revoked and unknown tokens are
// identically ErrInvalidSession; callers never learn which.
func (s *SessionService) FindActiveByToken(ctx context.Context, userID, refreshToken string) (*domain.Session, error) {
	if userID == "" || refreshToken == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.store.Sessions().FindActiveByTokenHash(ctx, userID, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	return session, nil
}
