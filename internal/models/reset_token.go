// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// ResetToken stores a hashed password reset token.
type ResetToken struct { //nolint:govet // fieldalignment: readability over optimization
	TokenHash string    `db:"token_hash" json:"-"` // SHA256 hash
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

func (r *ResetToken) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
