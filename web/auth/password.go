// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = bcrypt.DefaultCost
	MinCost     = bcrypt.MinCost
	MaxCost     = bcrypt.MaxCost
)

// HashKey returns the bcrypt hash of an API key, suitable for api_key_hash.
func HashKey(key string) (string, error) {
	return HashKeyWithCost(key, DefaultCost)
}

func HashKeyWithCost(key string, cost int) (string, error) {
	if key == "" {
		return "", fmt.Errorf("hash key: empty key")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// CheckKeyHash reports whether key matches the bcrypt hash.
func CheckKeyHash(key, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	return err == nil
}

// IsKeyHash reports whether s looks like a bcrypt hash.
func IsKeyHash(s string) bool {
	if _, err := bcrypt.Cost([]byte(s)); err != nil {
		return false
	}
	return strings.HasPrefix(s, "$2")
}

// GenerateKey returns a random 256-bit key, hex encoded.
func GenerateKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
