// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

const userColumns = `id, email, password_hash, phone_number, name, is_verified, is_premium,
	premium_plan, premium_until, checks_today, last_check_date, total_checks,
	payment_pending, last_login_at, created_at, updated_at`

// CreateUser inserts a new user. ID and timestamps must be set by the caller.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :password_hash, :phone_number, :name, :is_verified, :is_premium,
			:premium_plan, :premium_until, :checks_today, :last_check_date, :total_checks,
			:payment_pending, :last_login_at, :created_at, :updated_at)`, user)
	return wrapError(err)
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// UpdateUser writes every mutable column of user.
func (r *Repository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	return expectOne(r.db.NamedExecContext(ctx, `UPDATE users SET
		email = :email,
		password_hash = :password_hash,
		phone_number = :phone_number,
		name = :name,
		is_verified = :is_verified,
		is_premium = :is_premium,
		premium_plan = :premium_plan,
		premium_until = :premium_until,
		checks_today = :checks_today,
		last_check_date = :last_check_date,
		total_checks = :total_checks,
		payment_pending = :payment_pending,
		last_login_at = :last_login_at,
		updated_at = :updated_at
		WHERE id = :id`, user))
}

// ListUsers returns all users, newest first.
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return users, nil
}
