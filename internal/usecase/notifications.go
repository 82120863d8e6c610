package usecase

import (
	"context"
	"time"
)

// MailSender renders and delivers the engine's outbound emails. Rendering and
// transport live in infra; the engine only decides when a message goes out.
type MailSender interface {
	SendTwoFactorCode(ctx context.Context, email, code string) error
	SendVerificationLink(ctx context.Context, email, token string) error
	SendPasswordResetLink(ctx context.Context, email, token string, expiresAt time.Time) error
}

type noopMailSender struct{}

func (noopMailSender) SendTwoFactorCode(context.Context, string, string) error { return nil }
func (noopMailSender) SendVerificationLink(context.Context, string, string) error {
	return nil
}
func (noopMailSender) SendPasswordResetLink(context.Context, string, string, time.Time) error {
	return nil
}
