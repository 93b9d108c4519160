// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"codeberg.org/cyberguard-ng/cyberguard/internal/scoring"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/scanner"
	"github.com/labstack/echo/v4"
)

// CheckHandlers serves the three risk checks.
type CheckHandlers struct {
	scanner *scanner.Service
}

func NewChecks(s *scanner.Service) *CheckHandlers {
	return &CheckHandlers{scanner: s}
}

// CheckRequest is the body of every check. Only the field matching the
// endpoint is read.
type CheckRequest struct {
	UserID string `json:"user_id" validate:"max=64"`
	Code   string `json:"code" validate:"max=64"`
	SMS    string `json:"sms" validate:"max=2000"`
	URL    string `json:"url" validate:"max=2048"`
}

// CheckUSSD scores a USSD code.
func (h *CheckHandlers) CheckUSSD(c echo.Context) error {
	return h.check(c, scoring.KindUSSD, func(r *CheckRequest) string { return r.Code })
}

// CheckSMS scores an SMS body.
func (h *CheckHandlers) CheckSMS(c echo.Context) error {
	return h.check(c, scoring.KindSMS, func(r *CheckRequest) string { return r.SMS })
}

// CheckURL scores a link.
func (h *CheckHandlers) CheckURL(c echo.Context) error {
	return h.check(c, scoring.KindURL, func(r *CheckRequest) string { return r.URL })
}

func (h *CheckHandlers) check(c echo.Context, kind scoring.Kind, input func(*CheckRequest) string) error {
	var req CheckRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	out, err := h.scanner.Check(c.Request().Context(), userID(c, req.UserID), kind, input(&req))
	if err != nil {
		switch {
		case errors.Is(err, scanner.ErrUserIDRequired):
			return fail(c, http.StatusBadRequest, "error_user_id_required")
		case errors.Is(err, scanner.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "error_user_not_found")
		case errors.Is(err, scanner.ErrInputRequired):
			return fail(c, http.StatusBadRequest, "error_input_required")
		case errors.Is(err, scanner.ErrNeedsVerification):
			return failWith(c, http.StatusForbidden, "error_needs_verification", nil, echo.Map{
				"type":               scoring.Warning,
				"needs_verification": true,
			})
		case errors.Is(err, scanner.ErrLimitReached):
			return failWith(c, http.StatusTooManyRequests, "error_limit_reached", nil, echo.Map{
				"type":             scoring.Warning,
				"limit_reached":    true,
				"remaining_checks": 0,
			})
		default:
			return serverError(c, "check_failed", err)
		}
	}

	res := out.Result
	fields := echo.Map{
		"type":             res.Verdict,
		"level":            res.Level,
		"risk_score":       res.Score,
		"is_premium":       out.Premium,
		"remaining_checks": out.Remaining,
	}
	if kind == scoring.KindURL {
		fields["domain"] = scoring.ExtractDomain(input(&req))
	}
	if out.Premium {
		matches := res.Matches
		if matches == nil {
			matches = []string{}
		}
		fields["matched_patterns"] = matches
	} else {
		fields["remaining_message"] = i18n.TPlural(c.Request().Context(), "checks_remaining", out.Remaining)
	}

	return respond(c, http.StatusOK, res.MessageID(), nil, fields)
}
