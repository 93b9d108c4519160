// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/email"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/otp"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/tokens"
	"codeberg.org/cyberguard-ng/cyberguard/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	ErrMissingFields      = errors.New("required fields are missing")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrPasswordTooLong    = errors.New("password is too long")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrNeedsVerification  = errors.New("email not verified")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrEmailDelivery      = errors.New("failed to deliver email")
)

// DefaultResetTokenTTL is how long a password reset link stays valid.
const DefaultResetTokenTTL = time.Hour

// resetPasswordURLFormat points at the front end's reset form.
const resetPasswordURLFormat = "%s/#reset-password?token=%s"

// Client identifies where a login comes from. Sessions are bound to IP.
type Client struct {
	IP        string
	UserAgent string
}

// Login is the outcome of a successful sign in.
type Login struct {
	User    *models.User
	Token   string
	Session *models.Session
}

type Service struct {
	users     store.UserStore
	otps      *otp.Service
	sessions  *session.Manager
	mailer    email.Sender
	clock     clock.Clock
	validate  *validator.Validate
	passwords *PasswordValidator
	resetTTL  time.Duration
	baseURL   string
}

func NewService(
	users store.UserStore,
	otps *otp.Service,
	sessions *session.Manager,
	mailer email.Sender,
	clk clock.Clock,
	cfg *config.AuthConfig,
	baseURL string,
) *Service {
	resetTTL := cfg.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = DefaultResetTokenTTL
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{
		users:     users,
		otps:      otps,
		sessions:  sessions,
		mailer:    mailer,
		clock:     clk,
		validate:  validation.New(),
		passwords: NewPasswordValidator(cfg.MinPassword),
		resetTTL:  resetTTL,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
	}
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwords
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// RegisterParams holds the parameters for user registration
type RegisterParams struct {
	Email       string
	Password    string
	PhoneNumber string
	Name        string
}

// Registration reports the new user and whether the OTP email went out.
type Registration struct {
	User    *models.User
	OTPSent bool
}

// Register creates an unverified account and emails it a verification
// code. A failed email does not fail the registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Registration, error) {
	addr := normalizeEmail(params.Email)
	phone := strings.TrimSpace(params.PhoneNumber)

	if addr == "" || params.Password == "" || phone == "" {
		return nil, ErrMissingFields
	}
	if err := s.passwords.Validate(params.Password); err != nil {
		return nil, err
	}
	if !validation.PhoneNumber(phone) {
		return nil, ErrInvalidPhone
	}
	if !validation.Email(s.validate, addr) {
		return nil, ErrInvalidEmail
	}

	_, err := s.users.GetUserByEmail(ctx, addr)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := hashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: passwordHash,
		PhoneNumber:  phone,
		Name:         strings.TrimSpace(params.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("register_success", "user_id", user.ID, "email", addr)
	metrics.RecordAuthEvent("register_success")

	sent := true
	if err := s.sendOTP(ctx, addr); err != nil {
		slog.Warn("register_otp_failed", "user_id", user.ID, "error", err)
		sent = false
	}

	return &Registration{User: user, OTPSent: sent}, nil
}

func (s *Service) sendOTP(ctx context.Context, addr string) error {
	code, err := s.otps.Issue(ctx, addr)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(ctx, addr, code, s.otps.TTL()); err != nil {
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}
	return nil
}

// SendVerificationOTP issues a new code for an unverified account,
// replacing the previous one.
func (s *Service) SendVerificationOTP(ctx context.Context, emailAddr string) error {
	addr := normalizeEmail(emailAddr)
	if addr == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.sendOTP(ctx, addr); err != nil {
		return err
	}
	slog.Info("otp_sent", "user_id", user.ID)
	return nil
}

// VerifyOTP marks the account verified and signs it in.
func (s *Service) VerifyOTP(ctx context.Context, emailAddr, code string, client Client) (*Login, error) {
	addr := normalizeEmail(emailAddr)
	if addr == "" || strings.TrimSpace(code) == "" {
		return nil, ErrMissingFields
	}

	if err := s.otps.Verify(ctx, addr, code); err != nil {
		slog.Warn("otp_verify_failed", "email", addr)
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsVerified {
		user.IsVerified = true
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to verify user: %w", err)
		}
	}
	slog.Info("email_verified", "user_id", user.ID)
	metrics.RecordAuthEvent("email_verified")

	return s.startSession(ctx, user, client)
}

// Login authenticates a verified user and returns a new session.
func (s *Service) Login(ctx context.Context, emailAddr, password string, client Client) (*Login, error) {
	addr := normalizeEmail(emailAddr)
	if addr == "" || password == "" {
		return nil, ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = checkPassword(string(dummyHash), password)
			slog.Warn("login_failed", "email", addr, "reason", "user_not_found")
			metrics.RecordAuthEvent("login_failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPassword(user.PasswordHash, password) {
		slog.Warn("login_failed", "email", addr, "reason", "invalid_password")
		metrics.RecordAuthEvent("login_failed")
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		slog.Info("login_failed", "email", addr, "reason", "unverified")
		return nil, ErrNeedsVerification
	}

	now := s.clock.Now().UTC()
	user.LastLoginAt = &now
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	slog.Info("login_success", "user_id", user.ID, "email", addr)
	metrics.RecordAuthEvent("login_success")
	return s.startSession(ctx, user, client)
}

func (s *Service) startSession(ctx context.Context, user *models.User, client Client) (*Login, error) {
	token, sess, err := s.sessions.Create(ctx, user.ID, client.IP, client.UserAgent)
	if err != nil {
		return nil, err
	}
	return &Login{User: user, Token: token, Session: sess}, nil
}

// Authenticate resolves a session token presented from ip to its user.
func (s *Service) Authenticate(ctx context.Context, token, ip string) (*models.User, *models.Session, error) {
	sess, err := s.sessions.Validate(ctx, token, ip)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.sessions.Destroy(ctx, token)
			return nil, nil, session.ErrInvalidSession
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, sess, nil
}

// Logout ends the session for token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	slog.Info("logout")
	return nil
}

// ForgotPassword emails a reset link when the address belongs to an
// account. The result never tells whether it does.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	addr := normalizeEmail(emailAddr)
	if addr == "" {
		return ErrMissingFields
	}

	user, err := s.users.GetUserByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Info("password_reset_requested", "email", addr, "known", false)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	plaintext, hash, err := tokens.Generate()
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	token := &models.ResetToken{
		TokenHash: hash,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}
	if err := s.users.CreateResetToken(ctx, token, now); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	resetURL := fmt.Sprintf(resetPasswordURLFormat, s.baseURL, plaintext)
	if err := s.mailer.SendPasswordReset(ctx, addr, resetURL, s.resetTTL); err != nil {
		slog.Error("reset_email_failed", "user_id", user.ID, "error", err)
		return nil
	}

	slog.Info("password_reset_requested", "user_id", user.ID, "known", true)
	return nil
}

// ResetPassword sets a new password using a reset token. All of the user's
// reset tokens and sessions are invalidated.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirm string) error {
	if token == "" || newPassword == "" || confirm == "" {
		return ErrMissingFields
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}
	if err := s.passwords.Validate(newPassword); err != nil {
		return err
	}

	rt, err := s.users.GetResetToken(ctx, tokens.Hash(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get reset token: %w", err)
	}
	if rt.Expired(s.clock.Now()) {
		return ErrInvalidResetToken
	}

	user, err := s.users.GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = passwordHash
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.users.DeleteUserResetTokens(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	if err := s.sessions.DestroyUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	slog.Info("password_reset", "user_id", user.ID)
	metrics.RecordAuthEvent("password_reset")
	return nil
}
