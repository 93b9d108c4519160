// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package quota enforces the free daily check allowance.
package quota

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
)

// DefaultLimit is the number of free checks per calendar day.
const DefaultLimit = 5

// Unlimited is reported as the remaining count for premium users.
const Unlimited = -1

type Gate struct {
	users store.UserStore
	limit int
}

func New(users store.UserStore, limit int) *Gate {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Gate{users: users, limit: limit}
}

func (g *Gate) Limit() int {
	return g.limit
}

// Allow reports whether u may run another check on now's calendar day.
// A counter left over from an earlier day is reset on u but not persisted.
func (g *Gate) Allow(u *models.User, now time.Time) bool {
	today := clock.Date(now)
	u.RollDay(today)
	if u.PremiumActive(today) {
		return true
	}
	return u.ChecksToday < g.limit
}

// Remaining returns the free checks left today, or Unlimited for premium
// users.
func (g *Gate) Remaining(u *models.User, now time.Time) int {
	today := clock.Date(now)
	if u.PremiumActive(today) {
		return Unlimited
	}
	used := u.ChecksToday
	if u.LastCheckDate != today {
		used = 0
	}
	if used >= g.limit {
		return 0
	}
	return g.limit - used
}

// Record counts one check against today and the lifetime total.
func (g *Gate) Record(ctx context.Context, u *models.User, now time.Time) error {
	u.RollDay(clock.Date(now))
	u.ChecksToday++
	u.TotalChecks++

	if err := g.users.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	return nil
}
