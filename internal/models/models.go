// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// Plan is a premium subscription tier. Price is in naira.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int    `json:"price"`
	DurationDays int    `json:"duration_days"`
}

const (
	PlanDaily   = "daily"
	PlanWeekly  = "weekly"
	PlanMonthly = "monthly"
)

var plans = []Plan{
	{ID: PlanDaily, Name: "Daily Premium", Description: "24 hours unlimited access", Price: 200, DurationDays: 1},
	{ID: PlanWeekly, Name: "Weekly Premium", Description: "7 days unlimited access", Price: 1000, DurationDays: 7},
	{ID: PlanMonthly, Name: "Monthly Premium", Description: "30 days unlimited access", Price: 3000, DurationDays: 30},
}

// Plans returns the plan catalogue, cheapest first.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan.
func PlanByID(id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
