package port

import (
	"context"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// AuditRepository appends to and reads the append-only audit trail.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	ListByUser(ctx context.Context, userID string, page, limit int) ([]domain.AuditEntry, int, error)
}
