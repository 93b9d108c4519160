// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

const paymentColumns = `id, user_id, plan, amount, phone_number, name, status, created_at, updated_at, verified_at`

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :user_id, :plan, :amount, :phone_number, :name, :status, :created_at, :updated_at, :verified_at)`, payment)
	return wrapError(err)
}

func (r *Repository) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.GetContext(ctx, &payment, r.q(`SELECT `+paymentColumns+` FROM payments WHERE id = ?`), id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &payment, nil
}

// UpdatePayment persists the status fields of payment.
func (r *Repository) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	payment.UpdatedAt = time.Now().UTC()
	return expectOne(r.db.NamedExecContext(ctx, `UPDATE payments SET
		status = :status,
		name = :name,
		updated_at = :updated_at,
		verified_at = :verified_at
		WHERE id = :id`, payment))
}

// ListPayments returns all payments, newest first.
func (r *Repository) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.SelectContext(ctx, &payments, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
