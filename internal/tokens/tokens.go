// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package tokens generates opaque bearer tokens and the hashes stored in
// their place.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Length is the number of random bytes in a token.
const Length = 32

// Generate returns a random hex token and its SHA256 hash for storage.
func Generate() (plaintext, hash string, err error) {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	plaintext = hex.EncodeToString(b)
	return plaintext, Hash(plaintext), nil
}

// Hash computes the SHA256 hash of a token.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
