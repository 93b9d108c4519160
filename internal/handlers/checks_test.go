// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUSSD(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")

	rec, resp := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd",
		`{"code":"*737#","user_id":"`+user.ID+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "safe", resp["type"])
	assert.Equal(t, "✅ SAFE - Verified Nigerian bank USSD code", resp["message"])
	assert.InDelta(t, 0, resp["risk_score"], 0)
	assert.InDelta(t, 4, resp["remaining_checks"], 0)
	assert.Equal(t, "You have 4 free checks left today", resp["remaining_message"])
	assert.NotContains(t, resp, "matched_patterns")
}

func TestCheckSMS_PremiumSeesPatterns(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")
	_, err := f.premium.Activate(context.Background(), user.ID, models.PlanWeekly)
	require.NoError(t, err)

	rec, resp := call(t, f.checks.CheckSMS, http.MethodPost, "/api/check-sms",
		`{"sms":"Congratulations! You won 5 million naira. Call 08031234567 to claim now","user_id":"`+user.ID+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scam", resp["type"])
	assert.Equal(t, "extreme", resp["level"])
	assert.Equal(t, true, resp["is_premium"])
	assert.InDelta(t, -1, resp["remaining_checks"], 0)
	assert.NotEmpty(t, resp["matched_patterns"])
}

func TestCheckURL(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")

	rec, resp := call(t, f.checks.CheckURL, http.MethodPost, "/api/check-url",
		`{"url":"https://gtbank-verify.tk/login","user_id":"`+user.ID+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scam", resp["type"])
	assert.Equal(t, "gtbank-verify.tk", resp["domain"])
}

func TestCheck_SessionUserWins(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")

	rec, _ := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd",
		`{"code":"*901#","user_id":"someone-else"}`, asUser(user))

	assert.Equal(t, http.StatusOK, rec.Code)
	stored, err := f.store.GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalChecks)
}

func TestCheck_LimitReached(t *testing.T) {
	f := newFixture(t)
	user := testutil.NewTestUser(t, f.store, "ada@example.com")
	body := `{"code":"*901#","user_id":"` + user.ID + `"}`

	for range 5 {
		rec, _ := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd", body)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, true, resp["limit_reached"])
	assert.Equal(t, "warning", resp["type"])
	assert.Equal(t, "❌ FREE LIMIT REACHED! Upgrade to Premium for unlimited checks.", resp["message"])
}

func TestCheck_Rejections(t *testing.T) {
	f := newFixture(t)
	verified := testutil.NewTestUser(t, f.store, "ada@example.com")
	unverified := testutil.NewTestUser(t, f.store, "bob@example.com")
	unverified.IsVerified = false
	require.NoError(t, f.store.UpdateUser(context.Background(), unverified))

	tests := []struct {
		name    string
		body    string
		code    int
		message string
	}{
		{"missing user", `{"code":"*901#"}`, http.StatusBadRequest, "User ID is required"},
		{"unknown user", `{"code":"*901#","user_id":"ghost"}`, http.StatusNotFound, "User not found"},
		{"unverified", `{"code":"*901#","user_id":"` + unverified.ID + `"}`, http.StatusForbidden, "❌ Please verify your email first to use security scanner."},
		{"empty input", `{"code":"  ","user_id":"` + verified.ID + `"}`, http.StatusBadRequest, "Please enter something to check"},
		{"malformed body", `{"code":`, http.StatusBadRequest, "Invalid request"},
		{"oversized code", `{"code":"*` + strings.Repeat("1", 70) + `#","user_id":"` + verified.ID + `"}`, http.StatusBadRequest, "code is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd", tt.body)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, tt.message, resp["message"])
		})
	}

	_, resp := call(t, f.checks.CheckUSSD, http.MethodPost, "/api/check-ussd",
		`{"code":"*901#","user_id":"`+unverified.ID+`"}`)
	assert.Equal(t, true, resp["needs_verification"])
}
