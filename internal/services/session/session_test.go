// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/memory"
	"codeberg.org/cyberguard-ng/cyberguard/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validHashKey is a valid 32-byte hex-encoded key for testing
const validHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// validBlockKey is a valid 32-byte hex-encoded key for encryption testing
const validBlockKey = "fedcba9876543210fedcba9876543210fedcba9876543210fedcba9876543210"

func newTestConfig() *config.SessionConfig {
	return &config.SessionConfig{
		CookieName: "_test_session",
		MaxAge:     3600, // 1 hour
		HashKey:    validHashKey,
	}
}

func newManager(t *testing.T, cfg *config.SessionConfig) (*session.Manager, *memory.Store, *clock.Mock) {
	t.Helper()
	s := memory.New()
	clk := clock.NewMock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	mgr, err := session.NewManager(cfg, s, clk)
	require.NoError(t, err)
	return mgr, s, clk
}

func TestNewManager(t *testing.T) {
	mgr, err := session.NewManager(newTestConfig(), memory.New(), nil)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_WithBlockKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.BlockKey = validBlockKey

	mgr, err := session.NewManager(cfg, memory.New(), nil)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestNewManager_InvalidKeys(t *testing.T) {
	tests := []struct {
		name     string
		hashKey  string
		blockKey string
		want     string
	}{
		{"hash key not hex", "not-hex-encoded", "", "invalid session hash key"},
		{"hash key too short", "0123456789abcdef", "", "must be 32 bytes"},
		{"block key not hex", validHashKey, "not-hex-encoded", "invalid session block key"},
		{"block key too short", validHashKey, "0123456789abcdef", "must be 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			cfg.HashKey = tt.hashKey
			cfg.BlockKey = tt.blockKey

			_, err := session.NewManager(cfg, memory.New(), nil)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewManager_DevMode_GeneratesKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.HashKey = ""

	mgr, err := session.NewManager(cfg, memory.New(), nil)

	require.NoError(t, err)
	assert.NotNil(t, mgr)
}

func TestCreateAndValidate(t *testing.T) {
	mgr, s, _ := newManager(t, newTestConfig())
	ctx := context.Background()

	token, sess, err := mgr.Create(ctx, "user-1", "10.0.0.1", "curl/8")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, tokens.Hash(token), sess.TokenHash)
	assert.Equal(t, sess.CreatedAt.Add(time.Hour), sess.ExpiresAt)

	got, err := mgr.Validate(ctx, token, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	// Only the hash is stored.
	_, err = s.GetSession(ctx, token)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidate_TouchesLastAccessed(t *testing.T) {
	mgr, s, clk := newManager(t, newTestConfig())
	ctx := context.Background()

	token, sess, err := mgr.Create(ctx, "user-1", "10.0.0.1", "")
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	_, err = mgr.Validate(ctx, token, "10.0.0.1")
	require.NoError(t, err)

	stored, err := s.GetSession(ctx, sess.TokenHash)
	require.NoError(t, err)
	assert.True(t, stored.LastAccessedAt.After(sess.LastAccessedAt))
}

func TestValidate_Expired(t *testing.T) {
	mgr, s, clk := newManager(t, newTestConfig())
	ctx := context.Background()

	token, sess, err := mgr.Create(ctx, "user-1", "10.0.0.1", "")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = mgr.Validate(ctx, token, "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	_, err = s.GetSession(ctx, sess.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidate_DifferentIP(t *testing.T) {
	mgr, s, _ := newManager(t, newTestConfig())
	ctx := context.Background()

	token, sess, err := mgr.Create(ctx, "user-1", "10.0.0.1", "")
	require.NoError(t, err)

	_, err = mgr.Validate(ctx, token, "10.0.0.2")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	// The session is gone even for the original IP.
	_, err = mgr.Validate(ctx, token, "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	_, err = s.GetSession(ctx, sess.TokenHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidate_UnknownToken(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())

	_, err := mgr.Validate(context.Background(), "nope", "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)

	_, err = mgr.Validate(context.Background(), "", "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestDestroy(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())
	ctx := context.Background()

	token, _, err := mgr.Create(ctx, "user-1", "10.0.0.1", "")
	require.NoError(t, err)

	require.NoError(t, mgr.Destroy(ctx, token))
	require.NoError(t, mgr.Destroy(ctx, token))
	require.NoError(t, mgr.Destroy(ctx, ""))

	_, err = mgr.Validate(ctx, token, "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)
}

func TestDestroyUser(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())
	ctx := context.Background()

	t1, _, err := mgr.Create(ctx, "user-1", "10.0.0.1", "")
	require.NoError(t, err)
	t2, _, err := mgr.Create(ctx, "user-1", "10.0.0.2", "")
	require.NoError(t, err)
	other, _, err := mgr.Create(ctx, "user-2", "10.0.0.1", "")
	require.NoError(t, err)

	require.NoError(t, mgr.DestroyUser(ctx, "user-1"))

	_, err = mgr.Validate(ctx, t1, "10.0.0.1")
	assert.ErrorIs(t, err, session.ErrInvalidSession)
	_, err = mgr.Validate(ctx, t2, "10.0.0.2")
	assert.ErrorIs(t, err, session.ErrInvalidSession)
	_, err = mgr.Validate(ctx, other, "10.0.0.1")
	assert.NoError(t, err)
}

func TestCookie(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())

	cookie, err := mgr.Cookie("token-value")

	require.NoError(t, err)
	assert.Equal(t, "_test_session", cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.NotEqual(t, "token-value", cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestCookie_SecureMode(t *testing.T) {
	cfg := newTestConfig()
	cfg.Secure = true
	mgr, _, _ := newManager(t, cfg)

	cookie, err := mgr.Cookie("token-value")

	require.NoError(t, err)
	assert.True(t, cookie.Secure)
	assert.True(t, mgr.Clear().Secure)
}

func TestTokenFromRequest(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())
	cookie, err := mgr.Cookie("from-cookie")
	require.NoError(t, err)

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer from-bearer")
		req.AddCookie(cookie)
		assert.Equal(t, "from-bearer", mgr.TokenFromRequest(req))
	})

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(session.HeaderToken, "from-header")
		assert.Equal(t, "from-header", mgr.TokenFromRequest(req))
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		assert.Equal(t, "from-cookie", mgr.TokenFromRequest(req))
	})

	t.Run("none", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, mgr.TokenFromRequest(req))
	})

	t.Run("tampered cookie", func(t *testing.T) {
		bad := *cookie
		bad.Value = bad.Value[:len(bad.Value)-5] + "XXXXX"
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&bad)
		assert.Empty(t, mgr.TokenFromRequest(req))
	})

	t.Run("different key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.HashKey = validBlockKey
		other, _, _ := newManager(t, cfg)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookie)
		assert.Empty(t, other.TokenFromRequest(req))
	})
}

func TestClear(t *testing.T) {
	mgr, _, _ := newManager(t, newTestConfig())

	cookie := mgr.Clear()

	assert.Equal(t, "_test_session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}
