// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package storetest is a behavioural test suite that every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for a single subtest.
type Factory func(t *testing.T) store.Store

// Run executes the full contract against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("ResetTokens", func(t *testing.T) { testResetTokens(t, newStore) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore) })
	t.Run("OTPs", func(t *testing.T) { testOTPs(t, newStore) })
	t.Run("Payments", func(t *testing.T) { testPayments(t, newStore) })
}

// NewUser returns an unsaved user with a unique email.
func NewUser(email string) *models.User {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$10$hash",
		PhoneNumber:  "08031234567",
		Name:         "Ada",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func mustCreateUser(t *testing.T, s store.Store, email string) *models.User {
	t.Helper()
	u := NewUser(email)
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func testUsers(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")

		byID, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
		assert.Equal(t, u.PasswordHash, byID.PasswordHash)
		assert.Equal(t, u.PhoneNumber, byID.PhoneNumber)
		assert.False(t, byID.IsVerified)
		assert.Nil(t, byID.LastLoginAt)

		byEmail, err := s.GetUserByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		mustCreateUser(t, s, "ada@example.com")

		err := s.CreateUser(ctx, NewUser("ada@example.com"))
		assert.ErrorIs(t, err, store.ErrDuplicate)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = s.UpdateUser(ctx, NewUser("ghost@example.com"))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")

		login := time.Now().UTC().Truncate(time.Second)
		u.IsVerified = true
		u.IsPremium = true
		u.PremiumPlan = models.PlanWeekly
		u.PremiumUntil = "2024-05-08"
		u.ChecksToday = 3
		u.LastCheckDate = "2024-05-01"
		u.TotalChecks = 42
		u.PaymentPending = true
		u.LastLoginAt = &login
		require.NoError(t, s.UpdateUser(ctx, u))

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, got.IsVerified)
		assert.True(t, got.IsPremium)
		assert.Equal(t, models.PlanWeekly, got.PremiumPlan)
		assert.Equal(t, "2024-05-08", got.PremiumUntil)
		assert.Equal(t, 3, got.ChecksToday)
		assert.Equal(t, "2024-05-01", got.LastCheckDate)
		assert.Equal(t, 42, got.TotalChecks)
		assert.True(t, got.PaymentPending)
		require.NotNil(t, got.LastLoginAt)
		assert.WithinDuration(t, login, *got.LastLoginAt, time.Second)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		older := NewUser("old@example.com")
		older.CreatedAt = older.CreatedAt.Add(-time.Hour)
		require.NoError(t, s.CreateUser(ctx, older))
		newer := mustCreateUser(t, s, "new@example.com")

		users, err := s.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, newer.ID, users[0].ID)
		assert.Equal(t, older.ID, users[1].ID)
	})
}

func testResetTokens(t *testing.T, newStore Factory) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")

		tok := &models.ResetToken{TokenHash: "hash-1", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		require.NoError(t, s.CreateResetToken(ctx, tok, now))

		got, err := s.GetResetToken(ctx, "hash-1")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.UserID)
		assert.WithinDuration(t, tok.ExpiresAt, got.ExpiresAt, time.Second)

		_, err = s.GetResetToken(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("prunes expired tokens of the same user", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		other := mustCreateUser(t, s, "bola@example.com")

		expired := &models.ResetToken{TokenHash: "expired", UserID: u.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
		valid := &models.ResetToken{TokenHash: "valid", UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
		othersExpired := &models.ResetToken{TokenHash: "others", UserID: other.ID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
		require.NoError(t, s.CreateResetToken(ctx, expired, now.Add(-2*time.Hour)))
		require.NoError(t, s.CreateResetToken(ctx, othersExpired, now.Add(-2*time.Hour)))
		require.NoError(t, s.CreateResetToken(ctx, valid, now))

		_, err := s.GetResetToken(ctx, "expired")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetResetToken(ctx, "valid")
		assert.NoError(t, err)
		_, err = s.GetResetToken(ctx, "others")
		assert.NoError(t, err)
	})

	t.Run("delete user tokens", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		for _, h := range []string{"a", "b"} {
			require.NoError(t, s.CreateResetToken(ctx, &models.ResetToken{
				TokenHash: h, UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
			}, now))
		}

		require.NoError(t, s.DeleteUserResetTokens(ctx, u.ID))

		_, err := s.GetResetToken(ctx, "a")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetResetToken(ctx, "b")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func newSession(userID, hash string) *models.Session {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Session{
		TokenHash:      hash,
		UserID:         userID,
		IPAddress:      "102.89.1.10",
		UserAgent:      "test-agent",
		CreatedAt:      now,
		ExpiresAt:      now.Add(30 * 24 * time.Hour),
		LastAccessedAt: now,
	}
}

func testSessions(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("create get touch delete", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		sess := newSession(u.ID, "sess-1")
		require.NoError(t, s.CreateSession(ctx, sess))

		got, err := s.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", got.TokenHash)
		assert.Equal(t, u.ID, got.UserID)
		assert.Equal(t, "102.89.1.10", got.IPAddress)
		assert.Equal(t, "test-agent", got.UserAgent)
		assert.WithinDuration(t, sess.ExpiresAt, got.ExpiresAt, time.Second)

		touched := sess.LastAccessedAt.Add(time.Hour)
		require.NoError(t, s.TouchSession(ctx, "sess-1", touched))
		got, err = s.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		assert.WithinDuration(t, touched, got.LastAccessedAt, time.Second)

		require.NoError(t, s.DeleteSession(ctx, "sess-1"))
		_, err = s.GetSession(ctx, "sess-1")
		assert.ErrorIs(t, err, store.ErrNotFound)

		// Deleting twice is not an error.
		require.NoError(t, s.DeleteSession(ctx, "sess-1"))
	})

	t.Run("touch missing", func(t *testing.T) {
		s := newStore(t)
		err := s.TouchSession(ctx, "missing", time.Now())
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete user sessions", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		other := mustCreateUser(t, s, "bola@example.com")
		require.NoError(t, s.CreateSession(ctx, newSession(u.ID, "a")))
		require.NoError(t, s.CreateSession(ctx, newSession(u.ID, "b")))
		require.NoError(t, s.CreateSession(ctx, newSession(other.ID, "c")))

		require.NoError(t, s.DeleteUserSessions(ctx, u.ID))

		_, err := s.GetSession(ctx, "a")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetSession(ctx, "b")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.GetSession(ctx, "c")
		assert.NoError(t, err)
	})
}

func testOTPs(t *testing.T, newStore Factory) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("save overwrite verify", func(t *testing.T) {
		s := newStore(t)

		first := &models.OTP{Email: "ada@example.com", CodeHash: "first", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
		require.NoError(t, s.SaveOTP(ctx, first))

		second := &models.OTP{Email: "ada@example.com", CodeHash: "second", CreatedAt: now, ExpiresAt: now.Add(10 * time.Minute)}
		require.NoError(t, s.SaveOTP(ctx, second))

		got, err := s.GetOTP(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, "second", got.CodeHash)
		assert.False(t, got.Verified)

		require.NoError(t, s.MarkOTPVerified(ctx, "ada@example.com"))
		got, err = s.GetOTP(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, got.Verified)
		assert.Equal(t, "second", got.CodeHash)
	})

	t.Run("resend clears verified flag", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveOTP(ctx, &models.OTP{Email: "ada@example.com", CodeHash: "a", Verified: true, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
		require.NoError(t, s.SaveOTP(ctx, &models.OTP{Email: "ada@example.com", CodeHash: "b", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

		got, err := s.GetOTP(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.False(t, got.Verified)
	})

	t.Run("failures counted until resend", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SaveOTP(ctx, &models.OTP{Email: "ada@example.com", CodeHash: "a", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

		n, err := s.RecordOTPFailure(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = s.RecordOTPFailure(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		got, err := s.GetOTP(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Attempts)
		assert.Equal(t, "a", got.CodeHash)

		require.NoError(t, s.SaveOTP(ctx, &models.OTP{Email: "ada@example.com", CodeHash: "b", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
		got, err = s.GetOTP(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Zero(t, got.Attempts)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetOTP(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.ErrorIs(t, s.MarkOTPVerified(ctx, "nobody@example.com"), store.ErrNotFound)
		_, err = s.RecordOTPFailure(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testPayments(t *testing.T, newStore Factory) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	newPayment := func(id, userID string, createdAt time.Time) *models.Payment {
		return &models.Payment{
			ID:          id,
			UserID:      userID,
			Plan:        models.PlanWeekly,
			Amount:      1000,
			PhoneNumber: "08031234567",
			Name:        "Ada",
			Status:      models.PaymentPending,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
	}

	t.Run("create get update", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		require.NoError(t, s.CreatePayment(ctx, newPayment("pay_1", u.ID, now)))

		got, err := s.GetPayment(ctx, "pay_1")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.UserID)
		assert.Equal(t, models.PlanWeekly, got.Plan)
		assert.Equal(t, 1000, got.Amount)
		assert.Equal(t, models.PaymentPending, got.Status)
		assert.Nil(t, got.VerifiedAt)

		verifiedAt := now.Add(time.Minute)
		got.Status = models.PaymentVerified
		got.VerifiedAt = &verifiedAt
		require.NoError(t, s.UpdatePayment(ctx, got))

		got, err = s.GetPayment(ctx, "pay_1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentVerified, got.Status)
		require.NotNil(t, got.VerifiedAt)
		assert.WithinDuration(t, verifiedAt, *got.VerifiedAt, time.Second)
	})

	t.Run("missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetPayment(ctx, "pay_missing")
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = s.UpdatePayment(ctx, &models.Payment{ID: "pay_missing", Status: models.PaymentRejected})
		assert.ErrorIs(t, err, store.ErrNotFound)

		err = s.CreatePayment(ctx, newPayment("pay_orphan", "no-such-user", now))
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		s := newStore(t)
		u := mustCreateUser(t, s, "ada@example.com")
		require.NoError(t, s.CreatePayment(ctx, newPayment("pay_old", u.ID, now.Add(-time.Hour))))
		require.NoError(t, s.CreatePayment(ctx, newPayment("pay_new", u.ID, now)))

		payments, err := s.ListPayments(ctx)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.Equal(t, "pay_new", payments[0].ID)
		assert.Equal(t, "pay_old", payments[1].ID)
	})
}
