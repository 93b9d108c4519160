// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package clock_test

import (
	"testing"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestDate(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	// 23:30 UTC is already the next day in Lagos.
	ts := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-09", clock.Date(ts))
	assert.Equal(t, "2024-03-10", clock.Date(ts.In(lagos)))
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2024, 3, 9, 17, 45, 12, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), clock.StartOfDay(ts))
}

func TestSystem_UsesLocation(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	now := clock.System{Location: loc}.Now()
	assert.Equal(t, loc, now.Location())
}

func TestMock(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	m := clock.NewMock(start)

	assert.Equal(t, start, m.Now())

	m.Advance(25 * time.Hour)
	assert.Equal(t, "2024-01-02", clock.Date(m.Now()))

	m.Set(start)
	assert.Equal(t, start, m.Now())
}
