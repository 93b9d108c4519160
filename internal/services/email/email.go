// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"github.com/wneessen/go-mail"
)

// ErrNotConfigured is returned by the Disabled sender.
var ErrNotConfigured = errors.New("email delivery is not configured")

// Sender delivers the account emails.
type Sender interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, resetURL string, ttl time.Duration) error
}

// Service sends email via SMTP.
type Service struct {
	cfg *config.SMTPConfig
}

var _ Sender = (*Service)(nil)

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// New returns the SMTP sender when cfg is complete and Disabled otherwise.
func New(cfg *config.SMTPConfig) Sender {
	if !cfg.Enabled() {
		slog.Warn("smtp_disabled", "hint", "set --smtp-host and --smtp-from to send OTP and reset emails")
		return Disabled{}
	}
	svc, err := NewService(cfg)
	if err != nil {
		return Disabled{}
	}
	return svc
}

// SendOTP sends a verification code.
func (s *Service) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	subject := i18n.T(ctx, "email_otp_subject")
	body := i18n.TData(ctx, "email_otp_body", map[string]any{
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})

	if err := s.send(ctx, to, subject, body); err != nil {
		return err
	}
	slog.Info("otp_email_sent", "email", to)
	return nil
}

// SendPasswordReset sends a reset link.
func (s *Service) SendPasswordReset(ctx context.Context, to, resetURL string, ttl time.Duration) error {
	subject := i18n.T(ctx, "email_reset_subject")
	body := i18n.TData(ctx, "email_reset_body", map[string]any{
		"ResetURL": resetURL,
		"Minutes":  int(ttl.Minutes()),
	})

	if err := s.send(ctx, to, subject, body); err != nil {
		return err
	}
	slog.Info("reset_email_sent", "email", to)
	return nil
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS on 465, STARTTLS elsewhere
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// Disabled is used when no SMTP server is configured. Every send fails
// with ErrNotConfigured.
type Disabled struct{}

func (Disabled) SendOTP(_ context.Context, to, _ string, _ time.Duration) error {
	slog.Warn("otp_email_skipped", "email", to, "reason", "smtp_disabled")
	return ErrNotConfigured
}

func (Disabled) SendPasswordReset(_ context.Context, to, _ string, _ time.Duration) error {
	slog.Warn("reset_email_skipped", "email", to, "reason", "smtp_disabled")
	return ErrNotConfigured
}
