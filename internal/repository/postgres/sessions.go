package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/repository"
)

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance that executes statements within the supplied transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	if tx == nil {
		return r
	}
	return &SessionRepository{exec: tx, builder: r.builder}
}

var sessionColumns = []string{
	"id",
	"user_id",
	"token_hash",
	"rotation_counter",
	"revoked",
	"ip",
	"user_agent",
	"created_at",
	"updated_at",
}

// Create persists a new session row.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	var ipValue any
	if session.IP != nil && *session.IP != "" {
		ipValue = *session.IP
	}

	var userAgentValue any
	if session.UserAgent != nil && *session.UserAgent != "" {
		userAgentValue = *session.UserAgent
	}

	stmt, args, err := r.builder.Insert("sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.TokenHash,
			session.RotationCounter,
			session.Revoked,
			ipValue,
			userAgentValue,
			session.CreatedAt,
			session.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// FindActiveByTokenHash looks up the non-revoked session holding the given token hash.
func (r *SessionRepository) FindActiveByTokenHash(ctx context.Context, userID, tokenHash string) (*domain.Session, error) {
	stmt, args, err := r.builder.
		Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{
			"user_id":    userID,
			"token_hash": tokenHash,
			"revoked":    false,
		}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	session, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return session, nil
}

// Rotate swaps the token hash and bumps the rotation counter in one
// conditional update. The WHERE clause matches the pre-rotation hash on a
// live row, so a concurrent rotation that already advanced the lineage makes
// this call observe zero rows and return repository.ErrNotFound.
func (r *SessionRepository) Rotate(ctx context.Context, sessionID, oldTokenHash, newTokenHash string, at time.Time) (int64, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("token_hash", newTokenHash).
		Set("rotation_counter", squirrel.Expr("rotation_counter + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{
			"id":         sessionID,
			"token_hash": oldTokenHash,
			"revoked":    false,
		}).
		Suffix("RETURNING rotation_counter").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build rotate session sql: %w", err)
	}

	var counter int64
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&counter); err != nil {
		if err == pgx.ErrNoRows {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("rotate session: %w", err)
	}

	return counter, nil
}

// RevokeOne marks the matching live session as revoked. Zero matched rows is
// not an error.
func (r *SessionRepository) RevokeOne(ctx context.Context, userID, tokenHash string, at time.Time) error {
	stmt, args, err := r.builder.Update("sessions").
		Set("revoked", true).
		Set("updated_at", at).
		Where(squirrel.Eq{
			"user_id":    userID,
			"token_hash": tokenHash,
			"revoked":    false,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every live session for the user and reports how
// many rows changed.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	stmt, args, err := r.builder.Update("sessions").
		Set("revoked", true).
		Set("updated_at", at).
		Where(squirrel.Eq{
			"user_id": userID,
			"revoked": false,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke all sessions sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}

	return int(ct.RowsAffected()), nil
}

// CountActiveByUser returns the number of live sessions for the user.
func (r *SessionRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("sessions").
		Where(squirrel.Eq{
			"user_id": userID,
			"revoked": false,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count sessions sql: %w", err)
	}

	var count int64
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("scan sessions count: %w", err)
	}

	return int(count), nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		session   domain.Session
		ip        *string
		userAgent *string
	)

	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.TokenHash,
		&session.RotationCounter,
		&session.Revoked,
		&ip,
		&userAgent,
		&session.CreatedAt,
		&session.UpdatedAt,
	); err != nil {
		return nil, err
	}

	session.IP = ip
	session.UserAgent = userAgent

	return &session, nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
