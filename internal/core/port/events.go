package port

import (
	"context"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// EventPublisher emits security lifecycle events to downstream consumers.
// Publishing is best-effort and happens after the owning transaction commits.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error
}
