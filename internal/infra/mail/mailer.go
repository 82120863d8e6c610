package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/telemetry"
	"github.com/neuroquarkk/authify/internal/usecase"
)

// Mailer renders templates and hands the result to a port.Notifier. It is the
// concrete usecase.MailSender used in production wiring.
type Mailer struct {
	notifier  port.Notifier
	templates *Templates
	clientURL string
	metrics   *telemetry.Metrics
}

// NewMailer constructs a template-backed mail sender. Links in outbound mail
// point at clientURL, the web front-end that redeems tokens. Metrics may be nil.
func NewMailer(notifier port.Notifier, templates *Templates, clientURL string, metrics *telemetry.Metrics) *Mailer {
	return &Mailer{notifier: notifier, templates: templates, clientURL: clientURL, metrics: metrics}
}

// SendTwoFactorCode delivers the step-up code for a pending login.
func (m *Mailer) SendTwoFactorCode(ctx context.Context, email, code string) error {
	body, err := m.templates.Render(templateTwoFactor, struct {
		Code string
	}{Code: code})
	if err != nil {
		return err
	}

	return m.send(ctx, "two_factor_code", email, "Your verification code", body)
}

// SendVerificationLink delivers the account verification link.
func (m *Mailer) SendVerificationLink(ctx context.Context, email, token string) error {
	body, err := m.templates.Render(templateVerifyEmail, struct {
		Link string
	}{Link: fmt.Sprintf("%s/verify-email?token=%s", m.clientURL, token)})
	if err != nil {
		return err
	}

	return m.send(ctx, "verification", email, "Verify your account", body)
}

// SendPasswordResetLink delivers the password reset link with its expiry.
func (m *Mailer) SendPasswordResetLink(ctx context.Context, email, token string, expiresAt time.Time) error {
	body, err := m.templates.Render(templatePasswordReset, struct {
		Link      string
		ExpiresAt time.Time
	}{
		Link:      fmt.Sprintf("%s/reset-password?token=%s", m.clientURL, token),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}

	return m.send(ctx, "password_reset", email, "Reset your password", body)
}

func (m *Mailer) send(ctx context.Context, kind, email, subject, body string) error {
	err := m.notifier.Send(ctx, email, subject, body)
	if m.metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		m.metrics.EmailsSent.WithLabelValues(kind, result).Inc()
	}
	return err
}

var _ usecase.MailSender = (*Mailer)(nil)
