// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package premium runs the bank transfer payment ledger and the premium
// subscription lifecycle.
package premium

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"codeberg.org/cyberguard-ng/cyberguard/internal/i18n"
	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	ErrMissingFields     = errors.New("required fields are missing")
	ErrInvalidPlan       = errors.New("invalid plan type")
	ErrUserNotFound      = errors.New("user not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrPaymentNotPending = errors.New("payment has already been processed")
	ErrInvalidAction     = errors.New("invalid action")
)

// Action is an administrator's decision on a pending payment.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction maps the request value to an Action. Empty means approve.
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case "", ActionApprove, "verify", "verified":
		return ActionApprove, nil
	case ActionReject, "rejected":
		return ActionReject, nil
	default:
		return "", ErrInvalidAction
	}
}

const paymentIDAttempts = 5

type Service struct {
	users    store.UserStore
	payments store.PaymentStore
	clock    clock.Clock
	business config.BusinessConfig
}

func NewService(users store.UserStore, payments store.PaymentStore, clk clock.Clock, business config.BusinessConfig) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{users: users, payments: payments, clock: clk, business: business}
}

// Plans returns the plan catalogue.
func (s *Service) Plans() []models.Plan {
	return models.Plans()
}

// Business returns the contact and bank details.
func (s *Service) Business() config.BusinessConfig {
	return s.business
}

// Refresh clears u's premium fields when the subscription has lapsed and
// persists the change.
func (s *Service) Refresh(ctx context.Context, u *models.User) error {
	if !u.ExpirePremium(clock.Date(s.clock.Now())) {
		return nil
	}
	slog.Info("premium_expired", "user_id", u.ID)
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("failed to expire premium: %w", err)
	}
	return nil
}

// User loads a user with lapsed premium already cleared.
func (s *Service) User(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := s.Refresh(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// InitiateParams describes a premium purchase intent.
type InitiateParams struct {
	UserID      string
	Plan        string
	PhoneNumber string
	Name        string
}

// Initiation is a created payment and the transfer instructions for it.
type Initiation struct {
	Payment      *models.Payment
	Plan         models.Plan
	Instructions string
}

// Initiate records a pending payment and flags the user as awaiting
// verification.
func (s *Service) Initiate(ctx context.Context, p InitiateParams) (*Initiation, error) {
	phone := strings.TrimSpace(p.PhoneNumber)
	if p.UserID == "" || p.Plan == "" || phone == "" {
		return nil, ErrMissingFields
	}
	plan, ok := models.PlanByID(p.Plan)
	if !ok {
		return nil, ErrInvalidPlan
	}

	user, err := s.User(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	payment := &models.Payment{
		UserID:      user.ID,
		Plan:        plan.ID,
		Amount:      plan.Price,
		PhoneNumber: phone,
		Name:        strings.TrimSpace(p.Name),
		Status:      models.PaymentPending,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}

	for attempt := 1; ; attempt++ {
		payment.ID = newPaymentID(now)
		err = s.payments.CreatePayment(ctx, payment)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrDuplicate) || attempt == paymentIDAttempts {
			return nil, fmt.Errorf("failed to create payment: %w", err)
		}
	}

	user.PaymentPending = true
	if user.Name == "" && payment.Name != "" {
		user.Name = payment.Name
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to flag pending payment: %w", err)
	}

	slog.Info("payment_initiated", "payment_id", payment.ID, "user_id", user.ID, "plan", plan.ID, "amount", plan.Price)
	metrics.RecordPayment(string(models.PaymentPending), plan.ID)

	return &Initiation{
		Payment:      payment,
		Plan:         plan,
		Instructions: s.Instructions(ctx, plan, payment.ID),
	}, nil
}

// newPaymentID returns pay_<yyyymmddhhmmss>_<4 digits>.
func newPaymentID(now time.Time) string {
	return fmt.Sprintf("pay_%s_%d", now.Format("20060102150405"), 1000+rand.IntN(9000))
}

// Instructions renders the bank transfer instructions for plan.
func (s *Service) Instructions(ctx context.Context, plan models.Plan, paymentID string) string {
	return i18n.TData(ctx, "payment_instructions", map[string]any{
		"PlanName":       plan.Name,
		"Amount":         FormatNaira(plan.Price),
		"BankName":       s.business.BankName,
		"AccountNumber":  s.business.BankAccountNumber,
		"AccountName":    s.business.BankAccountName,
		"WhatsAppNumber": s.business.WhatsAppNumber,
		"PaymentID":      paymentID,
	})
}

// FormatNaira groups thousands, e.g. 3000 becomes "3,000".
func FormatNaira(amount int) string {
	return message.NewPrinter(language.English).Sprintf("%d", amount)
}

// Status returns a payment owned by userID along with the owner. A payment
// that belongs to someone else is reported as not found.
func (s *Service) Status(ctx context.Context, paymentID, userID string) (*models.Payment, *models.User, error) {
	if paymentID == "" || userID == "" {
		return nil, nil, ErrMissingFields
	}

	payment, err := s.payment(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	if payment.UserID != userID {
		return nil, nil, ErrPaymentNotFound
	}

	user, err := s.User(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return payment, user, nil
}

func (s *Service) payment(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.GetPayment(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// Review applies an administrator's decision to a pending payment.
// Approving activates the owner's premium for the payment's plan.
func (s *Service) Review(ctx context.Context, paymentID string, action Action) (*models.Payment, error) {
	if paymentID == "" {
		return nil, ErrMissingFields
	}
	if action != ActionApprove && action != ActionReject {
		return nil, ErrInvalidAction
	}

	payment, err := s.payment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.Pending() {
		return nil, ErrPaymentNotPending
	}

	user, err := s.users.GetUserByID(ctx, payment.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	previous := *payment
	now := s.clock.Now()
	payment.UpdatedAt = now.UTC()

	switch action {
	case ActionApprove:
		plan, ok := models.PlanByID(payment.Plan)
		if !ok {
			return nil, ErrInvalidPlan
		}
		verifiedAt := now.UTC()
		payment.Status = models.PaymentVerified
		payment.VerifiedAt = &verifiedAt
		user.ActivatePremium(plan, clock.StartOfDay(now))
	case ActionReject:
		payment.Status = models.PaymentRejected
		user.PaymentPending = false
	}

	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	if err := s.users.UpdateUser(ctx, user); err != nil {
		// Put the payment back to pending so the review can be retried.
		if restoreErr := s.payments.UpdatePayment(ctx, &previous); restoreErr != nil {
			slog.Error("payment_restore_failed", "payment_id", payment.ID, "error", restoreErr)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("payment_"+string(payment.Status), "payment_id", payment.ID, "user_id", user.ID, "plan", payment.Plan)
	metrics.RecordPayment(string(payment.Status), payment.Plan)
	return payment, nil
}

// Activate grants a plan to a user without a payment. An empty plan means
// weekly.
func (s *Service) Activate(ctx context.Context, userID, planID string) (*models.User, error) {
	if userID == "" {
		return nil, ErrMissingFields
	}
	if planID == "" {
		planID = models.PlanWeekly
	}
	plan, ok := models.PlanByID(planID)
	if !ok {
		return nil, ErrInvalidPlan
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.ActivatePremium(plan, clock.StartOfDay(s.clock.Now()))
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to activate premium: %w", err)
	}

	slog.Info("premium_activated", "user_id", user.ID, "plan", plan.ID, "premium_until", user.PremiumUntil)
	return user, nil
}

// Users lists all accounts for the admin, clearing lapsed subscriptions.
func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		if err := s.Refresh(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// Payments lists the ledger, newest first.
func (s *Service) Payments(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.payments.ListPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
