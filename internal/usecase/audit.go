package usecase

import (
	"context"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
)

// appendAudit writes one trail entry inside the caller's atomic unit.
func appendAudit(ctx context.Context, r port.RepositorySet, userID string, action domain.AuditAction, at time.Time) error {
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    action,
		CreatedAt: at,
	}
	if err := r.Audit().Append(ctx, entry); err != nil {
		return fmt.Errorf("append audit %s: %w", action, err)
	}
	return nil
}

// AuditService reads the append-only trail.
type AuditService struct {
	store port.Store
}

// NewAuditService constructs an AuditService.
func NewAuditService(store port.Store) *AuditService {
	return &AuditService{store: store}
}

// ListForUser returns one page of the user's audit trail ordered by creation time.
func (s *AuditService) ListForUser(ctx context.Context, userID string, page, limit int) (*domain.AuditPage, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	entries, total, err := s.store.Audit().ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	pageCount := (total + limit - 1) / limit

	return &domain.AuditPage{
		Entries:   entries,
		Total:     total,
		Page:      page,
		PageCount: pageCount,
		Limit:     limit,
	}, nil
}
