// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/cyberguard-ng/cyberguard/internal/services/adminauth"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/premium"
	"github.com/labstack/echo/v4"
)

// AdminHandlers serves the payment review API.
type AdminHandlers struct {
	admin   *adminauth.Service
	premium *premium.Service
}

func NewAdmin(admin *adminauth.Service, p *premium.Service) *AdminHandlers {
	return &AdminHandlers{admin: admin, premium: p}
}

// AdminLoginRequest is the request body for obtaining an admin token.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"max=256"`
}

// Login exchanges the admin password for a bearer token.
func (h *AdminHandlers) Login(c echo.Context) error {
	var req AdminLoginRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	token, expiresAt, err := h.admin.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, adminauth.ErrDisabled):
			return fail(c, http.StatusForbidden, "error_admin_disabled")
		case errors.Is(err, adminauth.ErrInvalidLogin):
			return fail(c, http.StatusUnauthorized, "error_admin_unauthorized")
		default:
			return serverError(c, "admin_login_failed", err)
		}
	}

	return respond(c, http.StatusOK, "admin_login_success", nil, echo.Map{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Users lists every account.
func (h *AdminHandlers) Users(c echo.Context) error {
	users, err := h.premium.Users(c.Request().Context())
	if err != nil {
		return serverError(c, "admin_list_users_failed", err)
	}
	return ok(c, echo.Map{"users": users, "count": len(users)})
}

// Payments lists every payment, newest first.
func (h *AdminHandlers) Payments(c echo.Context) error {
	payments, err := h.premium.Payments(c.Request().Context())
	if err != nil {
		return serverError(c, "admin_list_payments_failed", err)
	}

	pending := 0
	for i := range payments {
		if payments[i].Pending() {
			pending++
		}
	}
	return ok(c, echo.Map{"payments": payments, "count": len(payments), "pending": pending})
}

// VerifyPaymentRequest is the request body for reviewing a payment.
type VerifyPaymentRequest struct {
	PaymentID string `json:"payment_id" validate:"max=64"`
	Action    string `json:"action" validate:"max=32"`
}

// VerifyPayment approves or rejects a pending payment.
func (h *AdminHandlers) VerifyPayment(c echo.Context) error {
	var req VerifyPaymentRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	if req.PaymentID == "" {
		return fail(c, http.StatusBadRequest, "error_payment_id_required")
	}
	action, err := premium.ParseAction(req.Action)
	if err != nil {
		return fail(c, http.StatusBadRequest, "error_invalid_action")
	}

	payment, err := h.premium.Review(c.Request().Context(), req.PaymentID, action)
	if err != nil {
		switch {
		case errors.Is(err, premium.ErrPaymentNotFound):
			return fail(c, http.StatusNotFound, "error_payment_not_found")
		case errors.Is(err, premium.ErrPaymentNotPending):
			return fail(c, http.StatusConflict, "error_payment_not_pending")
		case errors.Is(err, premium.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "error_user_not_found")
		default:
			return serverError(c, "verify_payment_failed", err)
		}
	}

	if action == premium.ActionReject {
		return respond(c, http.StatusOK, "payment_rejected", nil, echo.Map{"payment": payment})
	}
	return respond(c, http.StatusOK, "payment_verified", map[string]any{
		"UserID": payment.UserID,
	}, echo.Map{"payment": payment})
}

// ActivatePremiumRequest is the request body for granting a plan directly.
type ActivatePremiumRequest struct {
	UserID   string `json:"user_id" validate:"max=64"`
	PlanType string `json:"plan_type" validate:"max=32"`
}

// ActivatePremium grants a plan without a payment.
func (h *AdminHandlers) ActivatePremium(c echo.Context) error {
	var req ActivatePremiumRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	user, err := h.premium.Activate(c.Request().Context(), req.UserID, req.PlanType)
	if err != nil {
		switch {
		case errors.Is(err, premium.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "error_user_id_required")
		case errors.Is(err, premium.ErrInvalidPlan):
			return fail(c, http.StatusBadRequest, "error_invalid_plan")
		case errors.Is(err, premium.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "error_user_not_found")
		default:
			return serverError(c, "activate_premium_failed", err)
		}
	}

	return respond(c, http.StatusOK, "premium_activated", map[string]any{
		"Plan":   user.PremiumPlan,
		"UserID": user.ID,
	}, echo.Map{"user": user})
}
