// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// User is a registered account. PremiumUntil and LastCheckDate are calendar
// dates (YYYY-MM-DD) in the service time zone; empty means unset.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID             string     `db:"id" json:"user_id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	PhoneNumber    string     `db:"phone_number" json:"phone_number"`
	Name           string     `db:"name" json:"name"`
	IsVerified     bool       `db:"is_verified" json:"is_verified"`
	IsPremium      bool       `db:"is_premium" json:"is_premium"`
	PremiumPlan    string     `db:"premium_plan" json:"premium_plan,omitempty"`
	PremiumUntil   string     `db:"premium_until" json:"premium_until,omitempty"`
	ChecksToday    int        `db:"checks_today" json:"checks_today"`
	LastCheckDate  string     `db:"last_check_date" json:"last_check_date,omitempty"`
	TotalChecks    int        `db:"total_checks" json:"total_checks"`
	PaymentPending bool       `db:"payment_pending" json:"payment_pending"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// PremiumActive reports whether the subscription covers the given day.
func (u *User) PremiumActive(today string) bool {
	return u.IsPremium && u.PremiumUntil != "" && today <= u.PremiumUntil
}

// ExpirePremium clears a lapsed subscription. It returns true when the
// user changed and needs to be persisted.
func (u *User) ExpirePremium(today string) bool {
	if !u.IsPremium || u.PremiumActive(today) {
		return false
	}
	u.IsPremium = false
	u.PremiumPlan = ""
	u.PremiumUntil = ""
	return true
}

// ActivatePremium grants plan starting at today. The subscription runs
// through today plus the plan's duration.
func (u *User) ActivatePremium(plan Plan, today time.Time) {
	u.IsPremium = true
	u.PremiumPlan = plan.ID
	u.PremiumUntil = today.AddDate(0, 0, plan.DurationDays).Format(time.DateOnly)
	u.PaymentPending = false
}

// RollDay resets the daily counter when the last check happened on another
// day. It returns true when the user changed.
func (u *User) RollDay(today string) bool {
	if u.LastCheckDate == today {
		return false
	}
	u.ChecksToday = 0
	u.LastCheckDate = today
	return true
}
