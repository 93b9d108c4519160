// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/labstack/echo/v4"
)

// RateLimit allows rps requests per second per client IP. Health probes
// and metric scrapes are not limited.
func RateLimit(rps int) echo.MiddlewareFunc {
	lmt := tollbooth.NewLimiter(float64(rps), &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(rps)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if quietPath(c) {
				return next(c)
			}
			if httpErr := tollbooth.LimitByKeys(lmt, []string{c.RealIP()}); httpErr != nil {
				return echo.NewHTTPError(http.StatusTooManyRequests, "error_rate_limited")
			}
			return next(c)
		}
	}
}
