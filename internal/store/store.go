// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package store defines the persistence contract shared by the SQL, memory
// and Redis adapters.
package store

import (
	"context"
	"errors"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a unique key (such as email) is taken.
var ErrDuplicate = errors.New("record already exists")

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)

	// CreateResetToken prunes the user's expired tokens before storing the
	// new one.
	CreateResetToken(ctx context.Context, token *models.ResetToken, now time.Time) error
	GetResetToken(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	DeleteUserResetTokens(ctx context.Context, userID string) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	TouchSession(ctx context.Context, tokenHash string, at time.Time) error
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) error
}

type OTPStore interface {
	// SaveOTP replaces any existing code for the same email.
	SaveOTP(ctx context.Context, otp *models.OTP) error
	GetOTP(ctx context.Context, email string) (*models.OTP, error)
	MarkOTPVerified(ctx context.Context, email string) error
	// RecordOTPFailure counts a wrong guess and returns the new total.
	RecordOTPFailure(ctx context.Context, email string) (int, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context) ([]models.Payment, error)
}

// Store is everything the services persist.
type Store interface {
	UserStore
	SessionStore
	OTPStore
	PaymentStore
	Ping(ctx context.Context) error
}

// Composite routes sessions and OTP codes to a dedicated backend while users
// and payments stay in the primary store.
type Composite struct {
	UserStore
	PaymentStore
	SessionStore
	OTPStore

	pingers []func(context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Compose builds a Store from a primary store and an ephemeral store that
// holds sessions and OTP codes.
func Compose(primary Store, ephemeral interface {
	SessionStore
	OTPStore
}) *Composite {
	c := &Composite{
		UserStore:    primary,
		PaymentStore: primary,
		SessionStore: ephemeral,
		OTPStore:     ephemeral,
		pingers:      []func(context.Context) error{primary.Ping},
	}
	if p, ok := ephemeral.(pinger); ok {
		c.pingers = append(c.pingers, p.Ping)
	}
	return c
}

func (c *Composite) Ping(ctx context.Context) error {
	for _, ping := range c.pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
