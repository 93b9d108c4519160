// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/tokens"
	"github.com/gorilla/securecookie"
)

// HeaderToken is the header clients without cookies present the token in.
const HeaderToken = "X-Session-Token"

// ErrInvalidSession is returned for unknown, expired or hijacked sessions.
var ErrInvalidSession = errors.New("invalid or expired session")

// Manager issues and validates login sessions. The token itself is only
// handed to the client; the store keeps its hash.
type Manager struct {
	store    store.SessionStore
	clock    clock.Clock
	codec    *securecookie.SecureCookie
	name     string
	maxAge   int
	secure   bool
	lifetime time.Duration
}

// NewManager creates a session manager. HashKey and BlockKey are hex
// encoded 32-byte keys; an empty HashKey generates a random one, which
// invalidates cookies on restart.
func NewManager(cfg *config.SessionConfig, sessions store.SessionStore, clk clock.Clock) (*Manager, error) {
	var hashKey []byte
	if cfg.HashKey == "" {
		slog.Warn("session_hash_key_missing", "hint", "set --session-hash-key to keep sessions across restarts")
		hashKey = securecookie.GenerateRandomKey(32)
	} else {
		key, err := decodeKey(cfg.HashKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session hash key: %w", err)
		}
		hashKey = key
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		key, err := decodeKey(cfg.BlockKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session block key: %w", err)
		}
		blockKey = key
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(cfg.MaxAge)

	if clk == nil {
		clk = clock.System{}
	}

	return &Manager{
		store:    sessions,
		clock:    clk,
		codec:    codec,
		name:     cfg.CookieName,
		maxAge:   cfg.MaxAge,
		secure:   cfg.Secure,
		lifetime: cfg.Duration(),
	}, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Create stores a new session for userID bound to the issuing IP.
func (m *Manager) Create(ctx context.Context, userID, ip, userAgent string) (string, *models.Session, error) {
	token, hash, err := tokens.Generate()
	if err != nil {
		return "", nil, err
	}

	now := m.clock.Now().UTC()
	sess := &models.Session{
		TokenHash:      hash,
		UserID:         userID,
		IPAddress:      ip,
		UserAgent:      userAgent,
		CreatedAt:      now,
		ExpiresAt:      now.Add(m.lifetime),
		LastAccessedAt: now,
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session_created", "user_id", userID, "ip", ip)
	return token, sess, nil
}

// Validate returns the session for token when it exists, has not expired
// and is presented from the IP it was issued to. Expired and mismatched
// sessions are deleted.
func (m *Manager) Validate(ctx context.Context, token, ip string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	hash := tokens.Hash(token)

	sess, err := m.store.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	now := m.clock.Now()
	if sess.Expired(now) {
		slog.Info("session_expired", "user_id", sess.UserID)
		m.drop(ctx, hash)
		return nil, ErrInvalidSession
	}
	if sess.IPAddress != ip {
		slog.Warn("session_ip_mismatch", "user_id", sess.UserID, "issued_ip", sess.IPAddress, "ip", ip)
		m.drop(ctx, hash)
		return nil, ErrInvalidSession
	}

	if err := m.store.TouchSession(ctx, hash, now.UTC()); err != nil {
		slog.Warn("session_touch_failed", "user_id", sess.UserID, "error", err)
	} else {
		sess.LastAccessedAt = now.UTC()
	}
	return sess, nil
}

func (m *Manager) drop(ctx context.Context, hash string) {
	if err := m.store.DeleteSession(ctx, hash); err != nil {
		slog.Error("session_delete_failed", "error", err)
	}
}

// Destroy deletes the session for token. Unknown tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, tokens.Hash(token))
}

// DestroyUser deletes every session of userID.
func (m *Manager) DestroyUser(ctx context.Context, userID string) error {
	return m.store.DeleteUserSessions(ctx, userID)
}

// Cookie returns a signed cookie carrying token.
func (m *Manager) Cookie(token string) (*http.Cookie, error) {
	encoded, err := m.codec.Encode(m.name, token)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     m.name,
		Value:    encoded,
		Path:     "/",
		MaxAge:   m.maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear returns a cookie that removes the session cookie.
func (m *Manager) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// TokenFromRequest extracts the session token from the Authorization
// bearer header, the X-Session-Token header or the signed cookie, in that
// order. It returns "" when none is present or the cookie does not verify.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.Header.Get(HeaderToken); token != "" {
		return token
	}

	cookie, err := r.Cookie(m.name)
	if err != nil {
		return ""
	}
	var token string
	if err := m.codec.Decode(m.name, cookie.Value, &token); err != nil {
		return ""
	}
	return token
}
