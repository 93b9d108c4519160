// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/cyberguard-ng/cyberguard/internal/services/auth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/email"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/otp"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for registration, login and password
// reset.
type AuthHandlers struct {
	auth     *auth.Service
	sessions *session.Manager
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(a *auth.Service, sessions *session.Manager) *AuthHandlers {
	return &AuthHandlers{auth: a, sessions: sessions}
}

// authFailure maps service errors to a response. missingID is the message
// used for ErrMissingFields, which differs per endpoint.
func (h *AuthHandlers) authFailure(c echo.Context, err error, missingID string) error {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		return fail(c, http.StatusBadRequest, missingID)
	case errors.Is(err, auth.ErrWeakPassword):
		return failWith(c, http.StatusBadRequest, "error_password_too_short", map[string]any{
			"MinLength": h.auth.PasswordValidator().MinLength,
		}, nil)
	case errors.Is(err, auth.ErrPasswordTooLong):
		return failWith(c, http.StatusBadRequest, "error_password_too_long", map[string]any{
			"MaxBytes": auth.MaxPasswordBytes,
		}, nil)
	case errors.Is(err, auth.ErrInvalidPhone):
		return fail(c, http.StatusBadRequest, "error_invalid_phone")
	case errors.Is(err, auth.ErrInvalidEmail):
		return fail(c, http.StatusBadRequest, "error_invalid_email")
	case errors.Is(err, auth.ErrUserExists):
		return fail(c, http.StatusConflict, "error_email_exists")
	case errors.Is(err, auth.ErrUserNotFound):
		return fail(c, http.StatusNotFound, "error_email_not_found")
	case errors.Is(err, auth.ErrAlreadyVerified):
		return fail(c, http.StatusConflict, "error_already_verified")
	case errors.Is(err, otp.ErrTooManyAttempts):
		return fail(c, http.StatusTooManyRequests, "error_otp_attempts")
	case errors.Is(err, otp.ErrInvalidCode):
		return fail(c, http.StatusBadRequest, "error_invalid_otp")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return fail(c, http.StatusUnauthorized, "error_invalid_credentials")
	case errors.Is(err, auth.ErrNeedsVerification):
		return failWith(c, http.StatusForbidden, "error_login_needs_verification", nil, echo.Map{
			"needs_verification": true,
		})
	case errors.Is(err, session.ErrInvalidSession):
		return fail(c, http.StatusUnauthorized, "error_invalid_session")
	case errors.Is(err, auth.ErrPasswordMismatch):
		return fail(c, http.StatusBadRequest, "error_passwords_mismatch")
	case errors.Is(err, auth.ErrInvalidResetToken):
		return fail(c, http.StatusBadRequest, "error_invalid_reset_token")
	case errors.Is(err, email.ErrNotConfigured):
		return fail(c, http.StatusServiceUnavailable, "error_email_unavailable")
	case errors.Is(err, auth.ErrEmailDelivery):
		slog.Error("email_delivery_failed", "error", err)
		return fail(c, http.StatusBadGateway, "error_otp_send_failed")
	default:
		return serverError(c, "auth_failed", err)
	}
}

func client(c echo.Context) auth.Client {
	return auth.Client{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// signedIn sets the session cookie and renders the login outcome.
func (h *AuthHandlers) signedIn(c echo.Context, messageID string, login *auth.Login) error {
	cookie, err := h.sessions.Cookie(login.Token)
	if err != nil {
		return serverError(c, "session_cookie_failed", err)
	}
	c.SetCookie(cookie)

	return respond(c, http.StatusOK, messageID, nil, echo.Map{
		"user_id":       login.User.ID,
		"session_token": login.Token,
		"expires_at":    login.Session.ExpiresAt,
		"user":          login.User,
	})
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"max=254"`
	Password    string `json:"password" validate:"max=72"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Name        string `json:"name" validate:"max=100"`
}

// RegisterUser creates an unverified account and emails an OTP.
func (h *AuthHandlers) RegisterUser(c echo.Context) error {
	var req RegisterRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	reg, err := h.auth.Register(c.Request().Context(), auth.RegisterParams{
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
	})
	if err != nil {
		return h.authFailure(c, err, "error_register_fields_required")
	}

	messageID := "register_success"
	if !reg.OTPSent {
		messageID = "register_success_otp_failed"
	}
	return respond(c, http.StatusCreated, messageID, nil, echo.Map{
		"user_id":  reg.User.ID,
		"email":    reg.User.Email,
		"otp_sent": reg.OTPSent,
	})
}

// VerifyOTPRequest is the request body for confirming an email address.
type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"max=254"`
	OTPCode string `json:"otp_code" validate:"max=16"`
}

// VerifyOTP marks the email verified and signs the user in.
func (h *AuthHandlers) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	login, err := h.auth.VerifyOTP(c.Request().Context(), req.Email, req.OTPCode, client(c))
	if err != nil {
		return h.authFailure(c, err, "error_email_otp_required")
	}
	return h.signedIn(c, "otp_verified", login)
}

// EmailRequest is the request body of endpoints that only take an email.
type EmailRequest struct {
	Email string `json:"email" validate:"max=254"`
}

// SendVerificationOTP emails a fresh code to an unverified account.
func (h *AuthHandlers) SendVerificationOTP(c echo.Context) error {
	return h.sendOTP(c, "otp_sent")
}

// ResendOTP replaces the pending code with a new one.
func (h *AuthHandlers) ResendOTP(c echo.Context) error {
	return h.sendOTP(c, "otp_resent")
}

func (h *AuthHandlers) sendOTP(c echo.Context, messageID string) error {
	var req EmailRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	if err := h.auth.SendVerificationOTP(c.Request().Context(), req.Email); err != nil {
		return h.authFailure(c, err, "error_email_required")
	}
	return respond(c, http.StatusOK, messageID, nil, nil)
}

// LoginRequest is the request body for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

// LoginUser signs in a verified user.
func (h *AuthHandlers) LoginUser(c echo.Context) error {
	var req LoginRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	login, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, client(c))
	if err != nil {
		return h.authFailure(c, err, "error_email_password_required")
	}
	return h.signedIn(c, "login_success", login)
}

// SessionRequest carries a session token in the body. Headers and the
// cookie are accepted as well.
type SessionRequest struct {
	SessionToken string `json:"session_token"`
}

func (h *AuthHandlers) sessionToken(c echo.Context) (string, bool, error) {
	var req SessionRequest
	if bound, err := bind(c, &req); !bound {
		return "", false, err
	}
	if req.SessionToken != "" {
		return req.SessionToken, true, nil
	}
	if token := h.sessions.TokenFromRequest(c.Request()); token != "" {
		return token, true, nil
	}
	return "", false, fail(c, http.StatusBadRequest, "error_session_required")
}

// ValidateSession reports the user a session token belongs to.
func (h *AuthHandlers) ValidateSession(c echo.Context) error {
	token, found, err := h.sessionToken(c)
	if !found {
		return err
	}

	user, sess, err := h.auth.Authenticate(c.Request().Context(), token, c.RealIP())
	if err != nil {
		return h.authFailure(c, err, "error_session_required")
	}

	return respond(c, http.StatusOK, "session_valid", nil, echo.Map{
		"user_id":    user.ID,
		"email":      user.Email,
		"expires_at": sess.ExpiresAt,
		"user":       user,
	})
}

// Logout deletes the session and clears the cookie.
func (h *AuthHandlers) Logout(c echo.Context) error {
	token, found, err := h.sessionToken(c)
	if !found {
		return err
	}

	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		return serverError(c, "logout_failed", err)
	}
	c.SetCookie(h.sessions.Clear())
	return respond(c, http.StatusOK, "logout_success", nil, nil)
}

// ForgotPassword emails a reset link. The answer is the same whether or
// not the address is registered.
func (h *AuthHandlers) ForgotPassword(c echo.Context) error {
	var req EmailRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	if err := h.auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return h.authFailure(c, err, "error_email_required")
	}
	return respond(c, http.StatusOK, "forgot_password_sent", nil, nil)
}

// ResetPasswordRequest is the request body for setting a new password.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password" validate:"max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"max=72"`
}

// ResetPassword sets a new password from a reset token.
func (h *AuthHandlers) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	if err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		return h.authFailure(c, err, "error_reset_fields_required")
	}
	return respond(c, http.StatusOK, "reset_password_success", nil, nil)
}
