// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package adminauth issues and checks the bearer tokens used by the
// admin API.
package adminauth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/cyberguard-ng/cyberguard/internal/clock"
	"codeberg.org/cyberguard-ng/cyberguard/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTokenTTL applies when the configured TTL is zero.
const DefaultTokenTTL = 12 * time.Hour

const subject = "admin"

var (
	ErrDisabled     = errors.New("admin API is disabled")
	ErrInvalidLogin = errors.New("invalid admin password")
	ErrInvalidToken = errors.New("invalid admin token")
)

// Claims identifies an admin token.
type Claims struct {
	jwt.RegisteredClaims
}

type Service struct {
	password string
	secret   []byte
	ttl      time.Duration
	clock    clock.Clock
}

func NewService(cfg *config.AdminConfig, clk clock.Clock) (*Service, error) {
	if clk == nil {
		clk = clock.System{}
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate admin token secret: %w", err)
		}
		if cfg.Enabled() {
			slog.Warn("no admin JWT secret configured, admin tokens will not survive restarts")
		}
	}

	return &Service{password: cfg.Password, secret: secret, ttl: ttl, clock: clk}, nil
}

func (s *Service) Enabled() bool {
	return s.password != ""
}

// Login checks password against the configured admin password and returns
// a signed token. The configured value may be a bcrypt hash.
func (s *Service) Login(password string) (string, time.Time, error) {
	if !s.Enabled() {
		return "", time.Time{}, ErrDisabled
	}
	if !s.checkPassword(password) {
		return "", time.Time{}, ErrInvalidLogin
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *Service) checkPassword(password string) bool {
	if strings.HasPrefix(s.password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(s.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) == 1
}

// Verify parses a token issued by Login.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	if !s.Enabled() {
		return nil, ErrDisabled
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithSubject(subject),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
