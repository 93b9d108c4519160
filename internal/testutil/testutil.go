// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/database"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/repository"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the password of users made by NewTestUser.
const TestPassword = "correct-horse"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a verified user with TestPassword.
func NewTestUser(t *testing.T, users store.UserStore, email string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		PhoneNumber:  "08031234567",
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.CreateUser(context.Background(), user))
	return user
}

// SentMail is one message captured by FakeMailer.
type SentMail struct {
	Kind string // "otp" or "reset"
	To   string
	Body string // the code or the reset URL
}

// FakeMailer records messages instead of sending them. Set Err to make
// every send fail.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *FakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	return m.record("otp", to, code)
}

func (m *FakeMailer) SendPasswordReset(_ context.Context, to, resetURL string, _ time.Duration) error {
	return m.record("reset", to, resetURL)
}

func (m *FakeMailer) record(kind, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{Kind: kind, To: to, Body: body})
	return nil
}

// Last returns the most recent message of kind sent to addr.
func (m *FakeMailer) Last(kind, to string) (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].Kind == kind && m.Sent[i].To == to {
			return m.Sent[i], true
		}
	}
	return SentMail{}, false
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
