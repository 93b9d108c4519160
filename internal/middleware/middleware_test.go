// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/cyberguard-ng/cyberguard/internal/appcontext"
	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"codeberg.org/cyberguard-ng/cyberguard/internal/middleware"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/adminauth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"github.com/labstack/echo/v4"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headerTokens struct{}

func (headerTokens) TokenFromRequest(r *http.Request) string {
	return r.Header.Get(session.HeaderToken)
}

type fakeAuth struct {
	token  string
	ip     string
	user   *models.User
	called int
}

func (f *fakeAuth) Authenticate(_ context.Context, token, ip string) (*models.User, *models.Session, error) {
	f.called++
	if token != f.token || ip != f.ip {
		return nil, nil, session.ErrInvalidSession
	}
	return f.user, &models.Session{UserID: f.user.ID}, nil
}

func whoAmI(c echo.Context) error {
	user := appcontext.GetUser(c.Request().Context())
	if user == nil {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, user.ID)
}

func TestLoadUser(t *testing.T) {
	auth := &fakeAuth{token: "tok", ip: "192.0.2.1", user: &models.User{ID: "u1"}}
	e := echo.New()
	e.Use(middleware.LoadUser(headerTokens{}, auth))
	e.GET("/", whoAmI)

	tests := []struct {
		name   string
		token  string
		remote string
		want   string
	}{
		{"valid session", "tok", "192.0.2.1:1234", "u1"},
		{"no token", "", "192.0.2.1:1234", "anonymous"},
		{"wrong token", "nope", "192.0.2.1:1234", "anonymous"},
		{"other ip", "tok", "198.51.100.7:1234", "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.token != "" {
				req.Header.Set(session.HeaderToken, tt.token)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

type fakeAdmin struct {
	enabled bool
}

func (f fakeAdmin) Enabled() bool { return f.enabled }

func (f fakeAdmin) Verify(token string) (*adminauth.Claims, error) {
	if token != "good" {
		return nil, adminauth.ErrInvalidToken
	}
	return &adminauth.Claims{}, nil
}

func TestRequireAdmin(t *testing.T) {
	newEcho := func(enabled bool) *echo.Echo {
		e := echo.New()
		e.GET("/admin", func(c echo.Context) error {
			assert.True(t, appcontext.IsAdmin(c.Request().Context()))
			return c.NoContent(http.StatusNoContent)
		}, middleware.RequireAdmin(fakeAdmin{enabled: enabled}))
		return e
	}

	tests := []struct {
		name    string
		enabled bool
		header  string
		want    int
	}{
		{"valid token", true, "Bearer good", http.StatusNoContent},
		{"bad token", true, "Bearer bad", http.StatusUnauthorized},
		{"missing header", true, "", http.StatusUnauthorized},
		{"basic auth", true, "Basic Zm9v", http.StatusUnauthorized},
		{"disabled", false, "Bearer good", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			newEcho(tt.enabled).ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	e := echo.New()
	e.Use(middleware.RateLimit(1))
	e.GET("/api/plans", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(path, remote string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("/api/plans", "192.0.2.1:1"))
	assert.Equal(t, http.StatusTooManyRequests, do("/api/plans", "192.0.2.1:2"))

	// Other clients have their own bucket.
	assert.Equal(t, http.StatusOK, do("/api/plans", "192.0.2.2:1"))

	// Health probes are never limited.
	for range 3 {
		assert.Equal(t, http.StatusOK, do("/health", "192.0.2.1:3"))
	}
}

func TestLocale(t *testing.T) {
	require.NoError(t, i18n.Init())

	e := echo.New()
	e.Use(middleware.Locale())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, i18n.GetLocale(c.Request().Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-NG,en;q=0.9")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "en", rec.Body.String())
}

func TestStripTrailingSlash(t *testing.T) {
	e := echo.New()
	e.Pre(middleware.StripTrailingSlash())
	e.GET("/api/plans", func(c echo.Context) error { return c.String(http.StatusOK, "plans") })
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "root") })

	for path, want := range map[string]string{
		"/api/plans/":  "plans",
		"/api/plans//": "plans",
		"/api/plans":   "plans",
		"/":            "root",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, rec.Body.String(), path)
	}
}

func TestMetrics(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Metrics())
	e.GET("/api/thing/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/api/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "nope")
	})

	ok := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/thing/:id", "200")
	teapot := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/broken", "418")
	okBefore := promtestutil.ToFloat64(ok)
	teapotBefore := promtestutil.ToFloat64(teapot)

	for _, path := range []string{"/api/thing/1", "/api/thing/2", "/api/broken"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.InDelta(t, okBefore+2, promtestutil.ToFloat64(ok), 0)
	assert.InDelta(t, teapotBefore+1, promtestutil.ToFloat64(teapot), 0)
}
