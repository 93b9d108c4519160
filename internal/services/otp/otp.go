// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp issues and checks the six digit email verification codes.
package otp

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/tokens"
	"github.com/xlzd/gotp"
)

// DefaultTTL is how long a code stays valid.
const DefaultTTL = 10 * time.Minute

const secretLength = 16

// MaxAttempts is how many wrong guesses a code survives.
const MaxAttempts = 5

var (
	// ErrInvalidCode covers unknown, expired, already used and wrong codes.
	ErrInvalidCode = errors.New("invalid or expired OTP code")
	// ErrTooManyAttempts means the code is burnt and a new one is needed.
	ErrTooManyAttempts = errors.New("too many wrong OTP attempts")
)

type Service struct {
	store store.OTPStore
	clock clock.Clock
	ttl   time.Duration
}

func NewService(otps store.OTPStore, clk clock.Clock, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{store: otps, clock: clk, ttl: ttl}
}

// TTL returns the code lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a fresh code for email, replacing any earlier one, and
// returns it in plaintext for delivery.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	code := gotp.NewDefaultTOTP(gotp.RandomSecret(secretLength)).Now()

	now := s.clock.Now().UTC()
	record := &models.OTP{
		Email:     strings.ToLower(email),
		CodeHash:  tokens.Hash(code),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.SaveOTP(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save OTP: %w", err)
	}
	return code, nil
}

// Verify checks code against the active record for email and marks it used.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = strings.ToLower(email)
	record, err := s.store.GetOTP(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to get OTP: %w", err)
	}

	if record.Verified || record.Expired(s.clock.Now()) {
		return ErrInvalidCode
	}
	if record.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	given := tokens.Hash(strings.TrimSpace(code))
	if subtle.ConstantTimeCompare([]byte(given), []byte(record.CodeHash)) != 1 {
		attempts, err := s.store.RecordOTPFailure(ctx, email)
		if err != nil {
			return fmt.Errorf("failed to record OTP failure: %w", err)
		}
		if attempts >= MaxAttempts {
			slog.Warn("otp_attempts_exhausted", "email", email)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	if err := s.store.MarkOTPVerified(ctx, email); err != nil {
		return fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	return nil
}
