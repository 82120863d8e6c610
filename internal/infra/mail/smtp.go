package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/config"
	"github.com/neuroquarkk/authify/internal/infra/logger"
)

// SMTPNotifier implements port.Notifier over plain SMTP with AUTH PLAIN.
type SMTPNotifier struct {
	cfg    config.MailSettings
	logger *zap.Logger
}

// NewSMTPNotifier constructs an SMTP-backed notifier.
func NewSMTPNotifier(cfg config.MailSettings, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, logger: logger}
}

// Send delivers one HTML message. The context deadline is not plumbed into
// the SMTP dial; callers treat delivery as best-effort either way.
func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.User != "" {
		auth = smtp.PlainAuth("", n.cfg.User, n.cfg.Password, n.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		n.logger.Error("smtp send failed",
			zap.String("to", logger.MaskEmail(to)),
			zap.Error(err),
		)
		return fmt.Errorf("send mail: %w", err)
	}

	n.logger.Info("mail sent",
		zap.String("to", logger.MaskEmail(to)),
		zap.String("subject", subject),
	)

	return nil
}

var _ port.Notifier = (*SMTPNotifier)(nil)
