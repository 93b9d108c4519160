// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"fmt"

	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/middleware"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/auth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

func setupMiddleware(e *echo.Echo, cfg *config.Config, sessions *session.Manager, authSvc *auth.Service) {
	e.Pre(middleware.StripTrailingSlash())

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())
	if cfg.Metrics.Enabled {
		e.Use(middleware.Metrics())
	}
	e.Use(echomw.Secure())
	e.Use(echomw.Gzip())
	if cfg.Server.MaxBodySize > 0 {
		e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.Server.MaxBodySize)))
	}
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimit(cfg.Server.RateLimit))
	}
	e.Use(middleware.Locale())
	e.Use(middleware.LoadUser(sessions, authSvc))
}
