// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/premium"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/quota"
	"github.com/labstack/echo/v4"
)

// PremiumHandlers serves plans, user stats and payments.
type PremiumHandlers struct {
	premium *premium.Service
	quota   *quota.Gate
	clock   clock.Clock
}

func NewPremium(p *premium.Service, q *quota.Gate, clk clock.Clock) *PremiumHandlers {
	if clk == nil {
		clk = clock.System{}
	}
	return &PremiumHandlers{premium: p, quota: q, clock: clk}
}

// UserStats reports a user's plan and today's usage.
func (h *PremiumHandlers) UserStats(c echo.Context) error {
	user, err := h.premium.User(c.Request().Context(), userID(c, c.QueryParam("user_id")))
	if err != nil {
		switch {
		case errors.Is(err, premium.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "error_user_id_required")
		case errors.Is(err, premium.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "error_user_not_found")
		default:
			return serverError(c, "user_stats_failed", err)
		}
	}

	now := h.clock.Now()
	checksToday := user.ChecksToday
	if user.LastCheckDate != clock.Date(now) {
		checksToday = 0
	}

	return ok(c, echo.Map{
		"user_id":          user.ID,
		"email":            user.Email,
		"name":             user.Name,
		"is_verified":      user.IsVerified,
		"is_premium":       user.IsPremium,
		"premium_plan":     user.PremiumPlan,
		"premium_until":    user.PremiumUntil,
		"checks_today":     checksToday,
		"total_checks":     user.TotalChecks,
		"payment_pending":  user.PaymentPending,
		"daily_limit":      h.quota.Limit(),
		"remaining_checks": h.quota.Remaining(user, now),
	})
}

// Plans lists the premium plans and where to pay.
func (h *PremiumHandlers) Plans(c echo.Context) error {
	biz := h.premium.Business()
	return ok(c, echo.Map{
		"plans":           h.premium.Plans(),
		"currency":        "NGN",
		"business_name":   biz.Name,
		"whatsapp_number": biz.WhatsAppNumber,
		"support_email":   biz.SupportEmail,
	})
}

// InitiatePaymentRequest is the request body for starting a purchase.
type InitiatePaymentRequest struct {
	UserID      string `json:"user_id" validate:"max=64"`
	PlanType    string `json:"plan_type" validate:"max=32"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Name        string `json:"name" validate:"max=100"`
}

// InitiatePayment records a pending bank transfer and returns the
// instructions for it.
func (h *PremiumHandlers) InitiatePayment(c echo.Context) error {
	var req InitiatePaymentRequest
	if bound, err := bind(c, &req); !bound {
		return err
	}

	started, err := h.premium.Initiate(c.Request().Context(), premium.InitiateParams{
		UserID:      userID(c, req.UserID),
		Plan:        req.PlanType,
		PhoneNumber: req.PhoneNumber,
		Name:        req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, premium.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "error_payment_fields_required")
		case errors.Is(err, premium.ErrInvalidPlan):
			return fail(c, http.StatusBadRequest, "error_invalid_plan")
		case errors.Is(err, premium.ErrUserNotFound):
			return fail(c, http.StatusNotFound, "error_user_not_found")
		default:
			return serverError(c, "initiate_payment_failed", err)
		}
	}

	biz := h.premium.Business()
	return respond(c, http.StatusCreated, "payment_initiated", nil, echo.Map{
		"payment_id":      started.Payment.ID,
		"plan":            started.Plan,
		"amount":          started.Payment.Amount,
		"status":          started.Payment.Status,
		"instructions":    started.Instructions,
		"bank_name":       biz.BankName,
		"account_number":  biz.BankAccountNumber,
		"account_name":    biz.BankAccountName,
		"whatsapp_number": biz.WhatsAppNumber,
	})
}

// CheckPaymentStatus reports a payment owned by the requesting user.
func (h *PremiumHandlers) CheckPaymentStatus(c echo.Context) error {
	payment, user, err := h.premium.Status(c.Request().Context(),
		c.QueryParam("payment_id"), userID(c, c.QueryParam("user_id")))
	if err != nil {
		switch {
		case errors.Is(err, premium.ErrMissingFields):
			return fail(c, http.StatusBadRequest, "error_payment_status_fields_required")
		case errors.Is(err, premium.ErrPaymentNotFound):
			return fail(c, http.StatusNotFound, "error_payment_not_found")
		default:
			return serverError(c, "payment_status_failed", err)
		}
	}

	return ok(c, echo.Map{
		"payment_id":     payment.ID,
		"payment_status": payment.Status,
		"plan_type":      payment.Plan,
		"amount":         payment.Amount,
		"created_at":     payment.CreatedAt,
		"verified_at":    payment.VerifiedAt,
		"user_premium":   user.IsPremium,
		"premium_plan":   user.PremiumPlan,
		"premium_until":  user.PremiumUntil,
	})
}
