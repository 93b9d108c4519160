// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

// SaveOTP upserts the code for otp.Email.
func (r *Repository) SaveOTP(ctx context.Context, otp *models.OTP) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO otps (email, code_hash, verified, attempts, created_at, expires_at)
		VALUES (:email, :code_hash, :verified, :attempts, :created_at, :expires_at)
		ON CONFLICT (email) DO UPDATE SET
			code_hash = excluded.code_hash,
			verified = excluded.verified,
			attempts = excluded.attempts,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`, otp)
	return err
}

func (r *Repository) GetOTP(ctx context.Context, email string) (*models.OTP, error) {
	var otp models.OTP
	err := r.db.GetContext(ctx, &otp,
		r.q(`SELECT email, code_hash, verified, attempts, created_at, expires_at FROM otps WHERE email = ?`), email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &otp, nil
}

func (r *Repository) MarkOTPVerified(ctx context.Context, email string) error {
	return expectOne(r.db.ExecContext(ctx, r.q(`UPDATE otps SET verified = ? WHERE email = ?`), true, email))
}

func (r *Repository) RecordOTPFailure(ctx context.Context, email string) (int, error) {
	if err := expectOne(r.db.ExecContext(ctx, r.q(`UPDATE otps SET attempts = attempts + 1 WHERE email = ?`), email)); err != nil {
		return 0, err
	}
	var attempts int
	if err := r.db.GetContext(ctx, &attempts, r.q(`SELECT attempts FROM otps WHERE email = ?`), email); err != nil {
		return 0, wrapError(err)
	}
	return attempts, nil
}
