// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
)

// RequireKey rejects requests the auth gate does not accept.
func (h *Handlers) RequireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.gate.CheckRequest(r); err != nil {
			writeError(w, err)
			return
		}
		next(w, r)
	}
}
