package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/repository"
)

// SingleUseTokenRepository implements port.SingleUseTokenRepository backed by
// PostgreSQL. The single_use_tokens table carries a unique (user_id, purpose)
// constraint, which is what makes Upsert a replace rather than a stack.
type SingleUseTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSingleUseTokenRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewSingleUseTokenRepository(exec pgExecutor) *SingleUseTokenRepository {
	return &SingleUseTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *SingleUseTokenRepository) WithTx(tx pgx.Tx) *SingleUseTokenRepository {
	if tx == nil {
		return r
	}
	return &SingleUseTokenRepository{exec: tx, builder: r.builder}
}

// Upsert inserts the token, replacing any live record for the same (user, purpose).
func (r *SingleUseTokenRepository) Upsert(ctx context.Context, token domain.SingleUseToken) error {
	stmt, args, err := r.builder.Insert("single_use_tokens").
		Columns("id", "user_id", "purpose", "token", "created_at", "expires_at").
		Values(token.ID, token.UserID, token.Purpose, token.Token, token.CreatedAt, token.ExpiresAt).
		Suffix(`ON CONFLICT (user_id, purpose) DO UPDATE SET
			id = EXCLUDED.id,
			token = EXCLUDED.token,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert single-use token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert single-use token: %w", err)
	}

	return nil
}

// GetByToken looks up a token record by its opaque value and purpose.
func (r *SingleUseTokenRepository) GetByToken(ctx context.Context, purpose domain.TokenPurpose, token string) (*domain.SingleUseToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "purpose", "token", "created_at", "expires_at").
		From("single_use_tokens").
		Where(squirrel.Eq{"purpose": purpose, "token": token}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select single-use token sql: %w", err)
	}

	var record domain.SingleUseToken
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Purpose,
		&record.Token,
		&record.CreatedAt,
		&record.ExpiresAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan single-use token: %w", err)
	}

	return &record, nil
}

// Delete removes the token record by identifier. A zero-row delete surfaces
// repository.ErrNotFound; the consume path relies on it to detect losing a
// concurrent consumption race.
func (r *SingleUseTokenRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("single_use_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete single-use token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete single-use token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.SingleUseTokenRepository = (*SingleUseTokenRepository)(nil)
