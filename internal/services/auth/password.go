// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultMinPasswordLength applies when the configuration sets none.
const DefaultMinPasswordLength = 6

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// dummyHash is compared against when the user does not exist so that
// unknown emails take as long as wrong passwords.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// PasswordValidator validates passwords against the configured rules.
type PasswordValidator struct {
	MinLength int
}

// PasswordValidationError reports a password that is too short.
type PasswordValidationError struct {
	MinLength int
}

func (e *PasswordValidationError) Error() string {
	return fmt.Sprintf("password must be at least %d characters long", e.MinLength)
}

// Is lets errors.Is match ErrWeakPassword.
func (e *PasswordValidationError) Is(target error) bool {
	return target == ErrWeakPassword
}

func NewPasswordValidator(minLength int) *PasswordValidator {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	return &PasswordValidator{MinLength: minLength}
}

// Validate counts runes for the minimum and bytes for the maximum.
func (v *PasswordValidator) Validate(password string) error {
	if utf8.RuneCountInString(password) < v.MinLength {
		return &PasswordValidationError{MinLength: v.MinLength}
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
