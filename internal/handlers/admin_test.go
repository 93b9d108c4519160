// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/handlers"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/adminauth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/premium"
	"codeberg.org/cyberguard-ng/cyberguard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminLogin(t *testing.T) {
	f := newFixture(t)

	rec, resp := call(t, f.admin.Login, http.MethodPost, "/api/admin/login", `{"password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := resp["token"].(string)
	_, err := f.adminSv.Verify(token)
	assert.NoError(t, err)

	rec, resp = call(t, f.admin.Login, http.MethodPost, "/api/admin/login", `{"password":"guess"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid admin credentials", resp["message"])
}

func TestAdminLogin_Disabled(t *testing.T) {
	f := newFixture(t)
	disabled, err := adminauth.NewService(&config.AdminConfig{}, f.clock)
	require.NoError(t, err)
	h := handlers.NewAdmin(disabled, f.premium)

	rec, resp := call(t, h.Login, http.MethodPost, "/api/admin/login", `{"password":""}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin API is disabled", resp["message"])
}

func initiate(t *testing.T, f *fixture, userID, plan string) *models.Payment {
	t.Helper()
	started, err := f.premium.Initiate(context.Background(), premium.InitiateParams{
		UserID:      userID,
		Plan:        plan,
		PhoneNumber: "08031234567",
	})
	require.NoError(t, err)
	return started.Payment
}

func TestVerifyPayment_Approve(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")
	payment := initiate(t, f, user.ID, models.PlanWeekly)

	rec, resp := call(t, f.admin.VerifyPayment, http.MethodPost, "/api/admin/verify-payment",
		`{"payment_id":"`+payment.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Equal(t, "Premium activated for user "+user.ID, resp["message"])

	stored, err := f.store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPremium)
	assert.Equal(t, "2025-02-08", stored.PremiumUntil)
	assert.False(t, stored.PaymentPending)

	rec, resp = call(t, f.admin.VerifyPayment, http.MethodPost, "/api/admin/verify-payment",
		`{"payment_id":"`+payment.ID+`","action":"reject"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Payment has already been processed", resp["message"])
}

func TestVerifyPayment_Reject(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")
	payment := initiate(t, f, user.ID, models.PlanDaily)

	rec, resp := call(t, f.admin.VerifyPayment, http.MethodPost, "/api/admin/verify-payment",
		`{"payment_id":"`+payment.ID+`","action":"reject"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Payment rejected", resp["message"])

	stored, err := f.store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPremium)
	assert.False(t, stored.PaymentPending)
}

func TestVerifyPayment_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		body    string
		code    int
		message string
	}{
		{`{}`, http.StatusBadRequest, "Payment ID is required"},
		{`{"payment_id":"pay_1","action":"maybe"}`, http.StatusBadRequest, "Invalid action"},
		{`{"payment_id":"pay_1"}`, http.StatusNotFound, "Payment not found"},
	}

	for _, tt := range tests {
		rec, resp := call(t, f.admin.VerifyPayment, http.MethodPost, "/api/admin/verify-payment", tt.body)
		assert.Equal(t, tt.code, rec.Code, tt.body)
		assert.Equal(t, tt.message, resp["message"], tt.body)
	}
}

func TestActivatePremium(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")

	rec, resp := call(t, f.admin.ActivatePremium, http.MethodPost, "/api/admin/activate-premium",
		`{"user_id":"`+user.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Premium weekly activated for user "+user.ID, resp["message"])

	rec, _ = call(t, f.admin.ActivatePremium, http.MethodPost, "/api/admin/activate-premium",
		`{"user_id":"`+user.ID+`","plan_type":"forever"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, f.admin.ActivatePremium, http.MethodPost, "/api/admin/activate-premium", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, f.admin.ActivatePremium, http.MethodPost, "/api/admin/activate-premium", `{"user_id":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListings(t *testing.T) {
	f := newFixture(t)
	ada := testutil.NewTestUser(t, f.store, "ada@example.com")
	testutil.NewTestUser(t, f.store, "bob@example.com")
	initiate(t, f, ada.ID, models.PlanMonthly)
	f.clock.Advance(time.Second)
	initiate(t, f, ada.ID, models.PlanDaily)

	rec, resp := call(t, f.admin.Users, http.MethodGet, "/api/admin/users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, resp["count"], 0)

	rec, resp = call(t, f.admin.Payments, http.MethodGet, "/api/admin/payments", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 2, resp["count"], 0)
	assert.InDelta(t, 2, resp["pending"], 0)
}
