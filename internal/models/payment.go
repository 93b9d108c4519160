// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// Payment is a bank transfer claim awaiting manual verification.
type Payment struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string        `db:"id" json:"payment_id"`
	UserID      string        `db:"user_id" json:"user_id"`
	Plan        string        `db:"plan" json:"plan_type"`
	Amount      int           `db:"amount" json:"amount"`
	PhoneNumber string        `db:"phone_number" json:"phone_number"`
	Name        string        `db:"name" json:"name"`
	Status      PaymentStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
	VerifiedAt  *time.Time    `db:"verified_at" json:"verified_at,omitempty"`
}

// Pending reports whether the payment can still be approved or rejected.
func (p *Payment) Pending() bool {
	return p.Status == PaymentPending
}
