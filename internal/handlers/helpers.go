// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/cyberguard-ng/cyberguard/internal/appcontext"
	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"codeberg.org/cyberguard-ng/cyberguard/internal/validation"
	"github.com/labstack/echo/v4"
)

// respond writes a successful JSON body. messageID may be empty.
func respond(c echo.Context, code int, messageID string, data map[string]any, fields echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	if messageID != "" {
		ctx := c.Request().Context()
		if data != nil {
			body["message"] = i18n.TData(ctx, messageID, data)
		} else {
			body["message"] = i18n.T(ctx, messageID)
		}
	}
	return c.JSON(code, body)
}

func ok(c echo.Context, fields echo.Map) error {
	return respond(c, http.StatusOK, "", nil, fields)
}

// bind decodes and validates the request into req. A malformed body is
// answered with 400 and reported as false.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, fail(c, http.StatusBadRequest, "error_invalid_request")
	}
	if err := c.Validate(req); err != nil {
		field, tag := validation.FirstTag(err)
		if tag == "max" {
			return false, failWith(c, http.StatusBadRequest, "error_field_too_long",
				map[string]any{"Field": field}, echo.Map{"field": field})
		}
		return false, fail(c, http.StatusBadRequest, "error_invalid_request")
	}
	return true, nil
}

// userID prefers the user of a valid session over the one named in the
// request.
func userID(c echo.Context, requested string) string {
	if user := appcontext.GetUser(c.Request().Context()); user != nil {
		return user.ID
	}
	return requested
}
