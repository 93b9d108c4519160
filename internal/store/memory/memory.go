// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package memory is a non-durable store.Store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
)

// Store keeps every record in mutex-guarded maps. Records are copied on
// the way in and out so callers never share state with the store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]models.User
	emails      map[string]string // email -> user id
	sessions    map[string]models.Session
	otps        map[string]models.OTP
	resetTokens map[string]models.ResetToken
	payments    map[string]models.Payment
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		emails:      make(map[string]string),
		sessions:    make(map[string]models.Session),
		otps:        make(map[string]models.OTP),
		resetTokens: make(map[string]models.ResetToken),
		payments:    make(map[string]models.Payment),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// ===== Users =====

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.emails[user.Email]; ok {
		return store.ErrDuplicate
	}
	s.users[user.ID] = *user
	s.emails[user.Email] = user.ID
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.users[user.ID]
	if !ok {
		return store.ErrNotFound
	}
	if old.Email != user.Email {
		if _, taken := s.emails[user.Email]; taken {
			return store.ErrDuplicate
		}
		delete(s.emails, old.Email)
		s.emails[user.Email] = user.ID
	}
	user.UpdatedAt = time.Now().UTC()
	s.users[user.ID] = *user
	return nil
}

func (s *Store) ListUsers(context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

// ===== Reset tokens =====

func (s *Store) CreateResetToken(_ context.Context, token *models.ResetToken, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.resetTokens {
		if t.UserID == token.UserID && t.Expired(now) {
			delete(s.resetTokens, hash)
		}
	}
	if _, ok := s.resetTokens[token.TokenHash]; ok {
		return store.ErrDuplicate
	}
	s.resetTokens[token.TokenHash] = *token
	return nil
}

func (s *Store) GetResetToken(_ context.Context, tokenHash string) (*models.ResetToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.resetTokens[tokenHash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

func (s *Store) DeleteUserResetTokens(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.resetTokens {
		if t.UserID == userID {
			delete(s.resetTokens, hash)
		}
	}
	return nil
}

// ===== Sessions =====

func (s *Store) CreateSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.TokenHash]; ok {
		return store.ErrDuplicate
	}
	s.sessions[session.TokenHash] = *session
	return nil
}

func (s *Store) GetSession(_ context.Context, tokenHash string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &sess, nil
}

func (s *Store) TouchSession(_ context.Context, tokenHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[tokenHash]
	if !ok {
		return store.ErrNotFound
	}
	sess.LastAccessedAt = at
	s.sessions[tokenHash] = sess
	return nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	delete(s.sessions, tokenHash)
	s.mu.Unlock()
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

// ===== OTPs =====

func (s *Store) SaveOTP(_ context.Context, otp *models.OTP) error {
	s.mu.Lock()
	s.otps[otp.Email] = *otp
	s.mu.Unlock()
	return nil
}

func (s *Store) GetOTP(_ context.Context, email string) (*models.OTP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	otp, ok := s.otps[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &otp, nil
}

func (s *Store) MarkOTPVerified(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return store.ErrNotFound
	}
	otp.Verified = true
	s.otps[email] = otp
	return nil
}

func (s *Store) RecordOTPFailure(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp, ok := s.otps[email]
	if !ok {
		return 0, store.ErrNotFound
	}
	otp.Attempts++
	s.otps[email] = otp
	return otp.Attempts, nil
}

// ===== Payments =====

func (s *Store) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[payment.ID]; ok {
		return store.ErrDuplicate
	}
	if _, ok := s.users[payment.UserID]; !ok {
		return store.ErrNotFound
	}
	s.payments[payment.ID] = *payment
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) UpdatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.payments[payment.ID]
	if !ok {
		return store.ErrNotFound
	}
	old.Status = payment.Status
	old.Name = payment.Name
	old.VerifiedAt = payment.VerifiedAt
	old.UpdatedAt = time.Now().UTC()
	payment.UpdatedAt = old.UpdatedAt
	s.payments[payment.ID] = old
	return nil
}

func (s *Store) ListPayments(context.Context) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]models.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].CreatedAt.After(payments[j].CreatedAt) })
	return payments, nil
}
