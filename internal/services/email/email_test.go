// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "CyberGuard NG",
		TLS:      true,
	}
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewService(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestNew_PicksImplementation(t *testing.T) {
	assert.IsType(t, &email.Service{}, email.New(validSMTPConfig()))

	cfg := validSMTPConfig()
	cfg.Host = ""
	assert.IsType(t, email.Disabled{}, email.New(cfg))
}

func TestDisabled(t *testing.T) {
	var s email.Sender = email.Disabled{}
	ctx := context.Background()

	assert.ErrorIs(t, s.SendOTP(ctx, "ada@example.com", "123456", 10*time.Minute), email.ErrNotConfigured)
	assert.ErrorIs(t, s.SendPasswordReset(ctx, "ada@example.com", "https://x/#reset-password?token=t", time.Hour), email.ErrNotConfigured)
}

func TestSendOTP_InvalidRecipient(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig())
	require.NoError(t, err)

	err = svc.SendOTP(context.Background(), "not an address", "123456", 10*time.Minute)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting to address")
}
