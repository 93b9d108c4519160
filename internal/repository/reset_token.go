// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

// CreateResetToken stores a reset token after removing the user's expired
// ones.
func (r *Repository) CreateResetToken(ctx context.Context, token *models.ResetToken, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var existing []models.ResetToken
	if err := tx.SelectContext(ctx, &existing,
		tx.Rebind(`SELECT token_hash, user_id, created_at, expires_at FROM reset_tokens WHERE user_id = ?`),
		token.UserID); err != nil {
		return fmt.Errorf("loading reset tokens: %w", err)
	}
	for _, t := range existing {
		if !t.Expired(now) {
			continue
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reset_tokens WHERE token_hash = ?`), t.TokenHash); err != nil {
			return fmt.Errorf("pruning reset tokens: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO reset_tokens (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`),
		token.TokenHash, token.UserID, token.CreatedAt, token.ExpiresAt); err != nil {
		return wrapError(err)
	}

	return tx.Commit()
}

// GetResetToken retrieves a reset token by hash.
func (r *Repository) GetResetToken(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	var token models.ResetToken
	err := r.db.GetContext(ctx, &token,
		r.q(`SELECT token_hash, user_id, created_at, expires_at FROM reset_tokens WHERE token_hash = ?`), tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &token, nil
}

// DeleteUserResetTokens deletes all reset tokens for a user.
func (r *Repository) DeleteUserResetTokens(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM reset_tokens WHERE user_id = ?`), userID)
	return err
}
