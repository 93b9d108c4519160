// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package clock provides the time source for quota days and expiry checks.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time in the service's time zone.
type Clock interface {
	Now() time.Time
}

// System is the wall clock pinned to a location.
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Date formats t as a calendar date (YYYY-MM-DD) in t's own location.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Mock is a settable clock for tests.
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

func NewMock(now time.Time) *Mock {
	return &Mock{now: now}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
