// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext stores request-scoped identity in context.Context.
package appcontext

import (
	"context"

	"codeberg.org/cyberguard-ng/cyberguard/internal/ctxkeys"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

// WithUser returns a copy of ctx carrying the authenticated user and the
// session it was resolved from.
func WithUser(ctx context.Context, user *models.User, session *models.Session) context.Context {
	ctx = context.WithValue(ctx, ctxkeys.User{}, user)
	return context.WithValue(ctx, ctxkeys.Session{}, session)
}

// GetUser returns the authenticated user, or nil if not authenticated.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(ctxkeys.User{}).(*models.User); ok {
		return user
	}
	return nil
}

// GetSession returns the session of the authenticated user, or nil.
func GetSession(ctx context.Context) *models.Session {
	if sess, ok := ctx.Value(ctxkeys.Session{}).(*models.Session); ok {
		return sess
	}
	return nil
}

// IsAuthenticated returns true if the context has an authenticated user.
func IsAuthenticated(ctx context.Context) bool {
	return GetUser(ctx) != nil
}

func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxkeys.Admin{}, true)
}

// IsAdmin reports whether the request carried a valid admin token.
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(ctxkeys.Admin{}).(bool)
	return admin
}
