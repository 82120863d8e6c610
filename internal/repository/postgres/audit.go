package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
)

// AuditRepository implements port.AuditRepository backed by PostgreSQL.
// The audit_logs table is append-only; no update or delete path exists here.
type AuditRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAuditRepository(exec pgExecutor) *AuditRepository {
	return &AuditRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *AuditRepository) WithTx(tx pgx.Tx) *AuditRepository {
	if tx == nil {
		return r
	}
	return &AuditRepository{exec: tx, builder: r.builder}
}

// Append inserts one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	stmt, args, err := r.builder.Insert("audit_logs").
		Columns("id", "user_id", "action", "created_at").
		Values(entry.ID, entry.UserID, entry.Action, entry.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByUser returns one page of the user's trail, newest first, along with
// the total entry count.
func (r *AuditRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.AuditEntry, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	countStmt, countArgs, err := r.builder.Select("COUNT(*)").
		From("audit_logs").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count audit entries sql: %w", err)
	}

	var total int64
	if err := r.exec.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan audit entry count: %w", err)
	}

	stmt, args, err := r.builder.
		Select("id", "user_id", "action", "created_at").
		From("audit_logs").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list audit entries sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0, limit)
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, int(total), nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
