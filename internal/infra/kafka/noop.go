package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
)

// NoopPublisher satisfies port.EventPublisher when Kafka is disabled. Events
// are logged at debug level and dropped.
type NoopPublisher struct {
	logger *zap.Logger
}

// NewNoopPublisher constructs a publisher that discards all events.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger}
}

func (p *NoopPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.logger.Debug("event publishing disabled, dropping user.registered", zap.String("user_id", event.UserID))
	return nil
}

func (p *NoopPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logger.Debug("event publishing disabled, dropping user.password.changed", zap.String("user_id", event.UserID))
	return nil
}

var _ port.EventPublisher = (*NoopPublisher)(nil)
