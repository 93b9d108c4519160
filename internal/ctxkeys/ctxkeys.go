// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// User is the context key for the user resolved from the session token.
type User struct{}

// Session is the context key for the session the user presented.
type Session struct{}

// Admin is the context key set once an admin token has been verified.
type Admin struct{}
