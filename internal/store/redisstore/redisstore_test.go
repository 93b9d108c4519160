// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package redisstore_test

import (
	"context"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/memory"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/redisstore"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store/storetest"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	s, err := redisstore.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestRedis_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, _ := setupTestStore(t)
		return store.Compose(memory.New(), s)
	})
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := redisstore.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := redisstore.Connect(context.Background(), "redis://"+addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestSession_ExpiresWithTTL(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, &models.Session{
		TokenHash:      "abc",
		UserID:         "user-1",
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Hour),
		LastAccessedAt: now,
	}))

	// Touching keeps the original TTL.
	require.NoError(t, s.TouchSession(ctx, "abc", now.Add(time.Minute)))
	mr.FastForward(30 * time.Minute)
	_, err := s.GetSession(ctx, "abc")
	require.NoError(t, err)

	mr.FastForward(31 * time.Minute)
	_, err = s.GetSession(ctx, "abc")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOTP_ExpiresWithTTL(t *testing.T) {
	s, mr := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.SaveOTP(ctx, &models.OTP{
		Email:     "ada@example.com",
		CodeHash:  "hash",
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}))

	mr.FastForward(11 * time.Minute)

	_, err := s.GetOTP(ctx, "ada@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateSession_Duplicate(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	sess := &models.Session{TokenHash: "dup", UserID: "u", CreatedAt: now, ExpiresAt: now.Add(time.Hour), LastAccessedAt: now}

	require.NoError(t, s.CreateSession(ctx, sess))
	assert.ErrorIs(t, s.CreateSession(ctx, sess), store.ErrDuplicate)
}
