// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package auth implements the shared-secret gate in front of the query endpoints.
package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/mdhender/aresmem"
)

// KeyParam is the query parameter that carries the API key.
const KeyParam = "key"

// Gate checks presented API keys.
// In public mode every request passes. Otherwise the key must match the
// plain key or the bcrypt hash; with neither configured every request fails
// with aresmem.ErrMisconfigured.
type Gate struct {
	public  bool
	key     []byte
	keyHash string
}

// NewGate creates a Gate. key and keyHash may each be empty.
func NewGate(public bool, key, keyHash string) *Gate {
	g := &Gate{public: public, keyHash: keyHash}
	if key != "" {
		g.key = []byte(key)
	}
	return g
}

// Public reports whether the gate is open.
func (g *Gate) Public() bool {
	return g.public
}

// Check returns nil if the presented key is accepted.
func (g *Gate) Check(presented string) error {
	if g.public {
		return nil
	}
	if g.key == nil && g.keyHash == "" {
		return aresmem.ErrMisconfigured
	}
	if presented == "" {
		return aresmem.ErrUnauthorized
	}
	if g.key != nil && subtle.ConstantTimeCompare([]byte(presented), g.key) == 1 {
		return nil
	}
	if g.keyHash != "" && CheckKeyHash(presented, g.keyHash) {
		return nil
	}
	return aresmem.ErrUnauthorized
}

// CheckRequest checks the key carried in the request's query string.
func (g *Gate) CheckRequest(r *http.Request) error {
	if g.public {
		return nil
	}
	return g.Check(r.URL.Query().Get(KeyParam))
}
