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

// TwoFactorTokenRepository implements port.TwoFactorTokenRepository backed by
// PostgreSQL. A unique user_id constraint keeps one outstanding code per user.
type TwoFactorTokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTwoFactorTokenRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewTwoFactorTokenRepository(exec pgExecutor) *TwoFactorTokenRepository {
	return &TwoFactorTokenRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *TwoFactorTokenRepository) WithTx(tx pgx.Tx) *TwoFactorTokenRepository {
	if tx == nil {
		return r
	}
	return &TwoFactorTokenRepository{exec: tx, builder: r.builder}
}

// Upsert inserts the code record, replacing any outstanding code for the user.
func (r *TwoFactorTokenRepository) Upsert(ctx context.Context, token domain.TwoFactorToken) error {
	stmt, args, err := r.builder.Insert("two_factor_tokens").
		Columns("id", "user_id", "code_hash", "created_at", "expires_at").
		Values(token.ID, token.UserID, token.CodeHash, token.CreatedAt, token.ExpiresAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			code_hash = EXCLUDED.code_hash,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert two-factor token sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("upsert two-factor token: %w", err)
	}

	return nil
}

// GetByUserID retrieves the outstanding code record for the user.
func (r *TwoFactorTokenRepository) GetByUserID(ctx context.Context, userID string) (*domain.TwoFactorToken, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "code_hash", "created_at", "expires_at").
		From("two_factor_tokens").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select two-factor token sql: %w", err)
	}

	var record domain.TwoFactorToken
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.CodeHash,
		&record.CreatedAt,
		&record.ExpiresAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan two-factor token: %w", err)
	}

	return &record, nil
}

// Delete removes the code record by identifier. A zero-row delete surfaces
// repository.ErrNotFound; the verify path relies on it to detect a code
// already consumed by a concurrent verification.
func (r *TwoFactorTokenRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("two_factor_tokens").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete two-factor token sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete two-factor token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.TwoFactorTokenRepository = (*TwoFactorTokenRepository)(nil)
