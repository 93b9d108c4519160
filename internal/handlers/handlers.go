// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"github.com/labstack/echo/v4"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains the service-level handlers.
type Handlers struct {
	store   Pinger
	version string
	clock   clock.Clock
}

// New creates a new Handlers instance.
func New(store Pinger, version string, clk clock.Clock) *Handlers {
	if clk == nil {
		clk = clock.System{}
	}
	return &Handlers{store: store, version: version, clock: clk}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	now := h.clock.Now().Format(time.RFC3339)

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			slog.Error("health_check_failed", "error", err)
			return failWith(c, http.StatusServiceUnavailable, "error_service_unavailable", nil, echo.Map{
				"status":    "unavailable",
				"timestamp": now,
				"version":   h.version,
			})
		}
	}

	return ok(c, echo.Map{
		"status":    "ok",
		"timestamp": now,
		"version":   h.version,
	})
}
