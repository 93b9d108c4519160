// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/cyberguard-ng/cyberguard/internal/appcontext"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/adminauth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Authenticator resolves a session token presented from ip to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token, ip string) (*models.User, *models.Session, error)
}

// TokenReader extracts a session token from a request.
type TokenReader interface {
	TokenFromRequest(r *http.Request) string
}

// LoadUser resolves the presented session token and stores the user in
// the request context. Requests without a valid session pass through
// unauthenticated.
func LoadUser(tokens TokenReader, auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			token := tokens.TokenFromRequest(req)
			if token == "" {
				return next(c)
			}

			user, sess, err := auth.Authenticate(req.Context(), token, c.RealIP())
			if err != nil {
				if !errors.Is(err, session.ErrInvalidSession) {
					slog.Error("failed to load session user", "error", err)
				}
				return next(c)
			}

			c.SetRequest(req.WithContext(appcontext.WithUser(req.Context(), user, sess)))
			return next(c)
		}
	}
}

// AdminVerifier checks admin bearer tokens.
type AdminVerifier interface {
	Enabled() bool
	Verify(token string) (*adminauth.Claims, error)
}

// RequireAdmin rejects requests without a valid admin bearer token.
func RequireAdmin(admin AdminVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !admin.Enabled() {
				return echo.NewHTTPError(http.StatusForbidden, "error_admin_disabled")
			}

			token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "error_admin_unauthorized")
			}
			if _, err := admin.Verify(strings.TrimSpace(token)); err != nil {
				slog.Warn("admin_token_rejected", "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "error_admin_unauthorized")
			}

			req := c.Request()
			c.SetRequest(req.WithContext(appcontext.WithAdmin(req.Context())))
			return next(c)
		}
	}
}
