package notification

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"

	"github.com/Kevram73/jungle-alert-api-sub000/internal/apperror"
	"github.com/Kevram73/jungle-alert-api-sub000/internal/model"
)

// EmailConfig holds SMTP settings
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailSender delivers alert emails over SMTP
type EmailSender struct {
	config   EmailConfig
	sendMail sendMailFunc
	logger   *slog.Logger
}

// NewEmailSender creates an SMTP backed sender
func NewEmailSender(cfg EmailConfig, logger *slog.Logger) *EmailSender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &EmailSender{config: cfg, sendMail: smtp.SendMail, logger: logger}
}

// Channel returns model.ChannelEmail
func (s *EmailSender) Channel() model.Channel {
	return model.ChannelEmail
}

// Send emails the notice to the alert owner
func (s *EmailSender) Send(ctx context.Context, n *Notice) error {
	if s.config.Host == "" {
		return apperror.Unconfigured(string(model.ChannelEmail))
	}
	if n.User == nil || n.User.Email == "" {
		return apperror.ValidationError("email", "user has no email address")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.config.From, n.User.Email, EmailSubject(n), EmailBody(n))

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	if err := s.sendMail(addr, auth, s.config.From, []string{n.User.Email}, msg); err != nil {
		return fmt.Errorf("sending email for alert %d: %w", n.Alert.ID, err)
	}

	s.logger.Info("Email notification sent",
		slog.Int64("alert_id", n.Alert.ID),
		slog.Int64("user_id", n.User.ID),
	)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
