package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Baaaki/heritage-museum/internal/config"
	"github.com/Baaaki/heritage-museum/pkg/logger"
	"go.uber.org/zap"
)

// Sender delivers plain-text mail.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns an SMTP sender when a host is configured, otherwise a LogSender.
func New(cfg config.SMTP) Sender {
	if cfg.Host == "" {
		logger.Log.Warn("SMTP host not configured, mail will be written to the log")
		return LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

type SMTPSender struct {
	cfg config.SMTP
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	msg := buildMessage(s.cfg.From, to, subject, body)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	logger.Log.Info("Mail sent",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

// LogSender writes mail to the logger. Used in development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, subject, body string) error {
	logger.Log.Info("Mail (log only)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
