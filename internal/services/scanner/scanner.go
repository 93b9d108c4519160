// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package scanner runs a risk check on behalf of a user: it enforces
// verification and the daily quota before scoring.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/scoring"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/premium"
	"codeberg.org/cyberguard-ng/cyberguard/internal/services/quota"
)

var (
	ErrUserIDRequired    = errors.New("user id is required")
	ErrUserNotFound      = errors.New("user not found")
	ErrNeedsVerification = errors.New("email not verified")
	ErrLimitReached      = errors.New("free daily limit reached")
	ErrInputRequired     = errors.New("nothing to check")
)

// Outcome is a scored check and the state of the user's allowance after
// it.
type Outcome struct {
	Result    scoring.Result
	User      *models.User
	Premium   bool
	Remaining int
}

type Service struct {
	premium *premium.Service
	quota   *quota.Gate
	clock   clock.Clock
}

func NewService(p *premium.Service, q *quota.Gate, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{premium: p, quota: q, clock: clk}
}

// Check scores input for userID. The check is counted before scoring.
func (s *Service) Check(ctx context.Context, userID string, kind scoring.Kind, input string) (*Outcome, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		metrics.RecordCheckRejected(string(kind), "user_id_required")
		return nil, ErrUserIDRequired
	}

	user, err := s.premium.User(ctx, userID)
	if err != nil {
		if errors.Is(err, premium.ErrUserNotFound) {
			metrics.RecordCheckRejected(string(kind), "user_not_found")
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !user.IsVerified {
		metrics.RecordCheckRejected(string(kind), "needs_verification")
		return nil, ErrNeedsVerification
	}

	// Empty input never costs a check.
	if strings.TrimSpace(input) == "" {
		metrics.RecordCheckRejected(string(kind), "input_required")
		return nil, ErrInputRequired
	}

	now := s.clock.Now()
	if !s.quota.Allow(user, now) {
		slog.Info("check_limit_reached", "user_id", user.ID, "kind", kind)
		metrics.RecordCheckRejected(string(kind), "limit_reached")
		return nil, ErrLimitReached
	}

	if err := s.quota.Record(ctx, user, now); err != nil {
		return nil, err
	}

	result := scoring.Score(kind, input)
	metrics.RecordCheck(string(kind), string(result.Verdict))
	slog.Debug("check_scored", "user_id", user.ID, "kind", kind, "verdict", result.Verdict, "score", result.Score)

	return &Outcome{
		Result:    result,
		User:      user,
		Premium:   user.PremiumActive(clock.Date(now)),
		Remaining: s.quota.Remaining(user, now),
	}, nil
}
