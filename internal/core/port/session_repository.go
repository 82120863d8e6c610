package port

import (
	"context"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// SessionRepository deals with session storage.
//
// Lookups only ever match non-revoked rows: a revoked or stale token is
// indistinguishable from an unknown one to callers.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	FindActiveByTokenHash(ctx context.Context, userID, tokenHash string) (*domain.Session, error)
	// Rotate replaces the session token and increments the rotation counter in
	// one conditional update matching {id, oldTokenHash, revoked=false}. It
	// returns repository.ErrNotFound when no such row exists, which is how the
	// loser of a concurrent rotation race observes the winner's advance.
	Rotate(ctx context.Context, sessionID, oldTokenHash, newTokenHash string, at time.Time) (int64, error)
	// RevokeOne marks the session matching {userID, tokenHash, revoked=false}
	// as revoked. Matching zero rows is not an error; logout is idempotent.
	RevokeOne(ctx context.Context, userID, tokenHash string, at time.Time) error
	// RevokeAllForUser revokes every non-revoked session for the user in one
	// batch and reports how many rows changed.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
}
