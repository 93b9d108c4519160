// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

func (r *Repository) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO sessions
		(token_hash, user_id, ip_address, user_agent, created_at, expires_at, last_accessed_at)
		VALUES (:token_hash, :user_id, :ip_address, :user_agent, :created_at, :expires_at, :last_accessed_at)`, session)
	return wrapError(err)
}

func (r *Repository) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, r.q(`SELECT token_hash, user_id, ip_address, user_agent,
		created_at, expires_at, last_accessed_at FROM sessions WHERE token_hash = ?`), tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &session, nil
}

func (r *Repository) TouchSession(ctx context.Context, tokenHash string, at time.Time) error {
	return expectOne(r.db.ExecContext(ctx,
		r.q(`UPDATE sessions SET last_accessed_at = ? WHERE token_hash = ?`), at, tokenHash))
}

func (r *Repository) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM sessions WHERE token_hash = ?`), tokenHash)
	return err
}

func (r *Repository) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, r.q(`DELETE FROM sessions WHERE user_id = ?`), userID)
	return err
}
