// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
)

// Register adds the query service routes to mux.
// Health and the directory are always open; data endpoints go through the auth gate.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /status", h.Health)
	mux.HandleFunc("GET /stats", h.RequireKey(h.Stats))
	mux.HandleFunc("GET /cases", h.RequireKey(h.Cases))
	mux.HandleFunc("GET /case/{case_id}", h.RequireKey(h.Case))
	mux.HandleFunc("GET /case/{case_id}/step/{step_id}", h.RequireKey(h.Step))
	mux.HandleFunc("GET /search", h.RequireKey(h.Search))
	mux.HandleFunc("/", h.NotFound)
}
