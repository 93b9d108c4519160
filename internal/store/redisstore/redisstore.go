// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package redisstore keeps sessions and OTP codes in Redis, where key
// expiry mirrors the records' own expiry.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/models"
	"codeberg.org/cyberguard-ng/cyberguard/internal/store"
	"github.com/redis/go-redis/v9"
)

const (
	sessionPrefix      = "cyberguard:session:"
	userSessionsPrefix = "cyberguard:user_sessions:"
	otpPrefix          = "cyberguard:otp:"
)

// Store implements store.SessionStore and store.OTPStore.
type Store struct {
	client *redis.Client
}

var (
	_ store.SessionStore = (*Store)(nil)
	_ store.OTPStore     = (*Store)(nil)
)

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Connect parses a redis:// URL and verifies the connection.
func Connect(ctx context.Context, url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ttlUntil converts an absolute expiry into a key TTL. Keys live for at
// least a second so that an already-expired record is still readable and
// rejected by the caller's own expiry check.
func ttlUntil(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (s *Store) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// sessionRecord carries the fields that models.Session hides from JSON.
type sessionRecord struct {
	TokenHash string `json:"token_hash"`
	models.Session
}

// ===== Sessions =====

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	ttl := ttlUntil(session.ExpiresAt)
	rec := sessionRecord{TokenHash: session.TokenHash, Session: *session}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionPrefix+session.TokenHash, data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if !ok {
		return store.ErrDuplicate
	}

	indexKey := userSessionsPrefix + session.UserID
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, indexKey, session.TokenHash)
	pipe.Expire(ctx, indexKey, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetSession(ctx context.Context, tokenHash string) (*models.Session, error) {
	var rec sessionRecord
	if err := s.getJSON(ctx, sessionPrefix+tokenHash, &rec); err != nil {
		return nil, err
	}
	session := rec.Session
	session.TokenHash = rec.TokenHash
	return &session, nil
}

func (s *Store) TouchSession(ctx context.Context, tokenHash string, at time.Time) error {
	session, err := s.GetSession(ctx, tokenHash)
	if err != nil {
		return err
	}
	session.LastAccessedAt = at
	return s.setJSON(ctx, sessionPrefix+tokenHash, sessionRecord{TokenHash: tokenHash, Session: *session}, redis.KeepTTL)
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	session, err := s.GetSession(ctx, tokenHash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionPrefix+tokenHash)
	pipe.SRem(ctx, userSessionsPrefix+session.UserID, tokenHash)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID string) error {
	indexKey := userSessionsPrefix + userID
	hashes, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, sessionPrefix+h)
	}
	keys = append(keys, indexKey)
	return s.client.Del(ctx, keys...).Err()
}

// ===== OTPs =====

type otpRecord struct {
	CodeHash string `json:"code_hash"`
	models.OTP
}

func (s *Store) SaveOTP(ctx context.Context, otp *models.OTP) error {
	rec := otpRecord{CodeHash: otp.CodeHash, OTP: *otp}
	return s.setJSON(ctx, otpPrefix+otp.Email, rec, ttlUntil(otp.ExpiresAt))
}

func (s *Store) GetOTP(ctx context.Context, email string) (*models.OTP, error) {
	var rec otpRecord
	if err := s.getJSON(ctx, otpPrefix+email, &rec); err != nil {
		return nil, err
	}
	otp := rec.OTP
	otp.CodeHash = rec.CodeHash
	return &otp, nil
}

func (s *Store) MarkOTPVerified(ctx context.Context, email string) error {
	otp, err := s.GetOTP(ctx, email)
	if err != nil {
		return err
	}
	otp.Verified = true
	return s.setJSON(ctx, otpPrefix+email, otpRecord{CodeHash: otp.CodeHash, OTP: *otp}, redis.KeepTTL)
}

func (s *Store) RecordOTPFailure(ctx context.Context, email string) (int, error) {
	otp, err := s.GetOTP(ctx, email)
	if err != nil {
		return 0, err
	}
	otp.Attempts++
	if err := s.setJSON(ctx, otpPrefix+email, otpRecord{CodeHash: otp.CodeHash, OTP: *otp}, redis.KeepTTL); err != nil {
		return 0, err
	}
	return otp.Attempts, nil
}
