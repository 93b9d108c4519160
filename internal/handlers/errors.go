// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"github.com/labstack/echo/v4"
)

// fail writes {"success": false, "message": ...} with the localized
// message.
func fail(c echo.Context, code int, messageID string) error {
	return failWith(c, code, messageID, nil, nil)
}

// failWith is fail with template data for the message and extra body
// fields.
func failWith(c echo.Context, code int, messageID string, data map[string]any, fields echo.Map) error {
	body := echo.Map{"success": false}
	for k, v := range fields {
		body[k] = v
	}
	ctx := c.Request().Context()
	if data != nil {
		body["message"] = i18n.TData(ctx, messageID, data)
	} else {
		body["message"] = i18n.T(ctx, messageID)
	}
	return c.JSON(code, body)
}

// serverError logs err and answers with a generic 500.
func serverError(c echo.Context, event string, err error) error {
	slog.Error(event, "error", err, "path", c.Path())
	return fail(c, http.StatusInternalServerError, "error_server")
}

// HTTPErrorHandler renders errors that escape handlers and middleware as
// JSON. An *echo.HTTPError whose message is a translation key is shown
// localized.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	messageID := "error_server"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if msg, ok := he.Message.(string); ok && strings.HasPrefix(msg, "error_") {
			messageID = msg
		} else {
			messageID = messageForStatus(code)
		}
	}
	if code >= http.StatusInternalServerError {
		slog.Error("request_failed", "error", err, "method", c.Request().Method, "uri", c.Request().RequestURI)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = fail(c, code, messageID)
	}
	if err != nil {
		slog.Error("failed to write error response", "error", err)
	}
}

func messageForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return "error_not_found"
	case http.StatusMethodNotAllowed:
		return "error_method_not_allowed"
	case http.StatusRequestEntityTooLarge:
		return "error_request_too_large"
	case http.StatusTooManyRequests:
		return "error_rate_limited"
	case http.StatusServiceUnavailable:
		return "error_service_unavailable"
	}
	if code >= http.StatusInternalServerError {
		return "error_server"
	}
	return "error_invalid_request"
}
