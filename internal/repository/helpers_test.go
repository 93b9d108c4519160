// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
)

func storetestPayment(id, userID string) *models.Payment {
	now := time.Now().UTC()
	return &models.Payment{
		ID:        id,
		UserID:    userID,
		Plan:      models.PlanDaily,
		Amount:    200,
		Status:    models.PaymentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
