// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
	"strings"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/web/templates"
)

const title = "ARES Memory API"

const authHint = "Set ARES_PUBLIC_MODE=false and ARES_API_KEY=... (or ARES_API_KEY_HASH) to protect the API."

type directory struct {
	Endpoints map[string]string `json:"endpoints"`
	Auth      string            `json:"auth"`
}

type health struct {
	OK         bool   `json:"ok"`
	PublicMode bool   `json:"public_mode"`
	Loaded     bool   `json:"loaded"`
	Version    string `json:"version"`
}

func (h *Handlers) endpoints() []templates.Endpoint {
	eps := []templates.Endpoint{
		{Path: "/", Description: "endpoint directory"},
		{Path: "/health", Description: "status"},
		{Path: "/status", Description: "status"},
		{Path: "/stats", Description: "dataset stats"},
		{Path: "/cases", Description: "list cases"},
		{Path: "/case/{case_id}", Description: "all steps"},
		{Path: "/case/{case_id}/step/{step_id}", Description: "one step"},
		{Path: "/search", Description: "filter"},
	}
	if h.metrics {
		eps = append(eps, templates.Endpoint{Path: "/metrics", Description: "prometheus metrics"})
	}
	return eps
}

// Index lists the endpoints, as HTML for browsers and JSON otherwise.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	eps := h.endpoints()

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		data := templates.DirectoryData{
			Title:     title,
			Version:   aresmem.Version().String(),
			Endpoints: eps,
			Auth:      authHint,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.Directory(data).Render(r.Context(), w); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	dir := directory{Endpoints: make(map[string]string, len(eps)), Auth: authHint}
	for _, ep := range eps {
		dir.Endpoints[ep.Path] = ep.Description
	}
	writeJSON(w, http.StatusOK, dir)
}

// Health reports liveness. It never loads the dataset.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, health{
		OK:         true,
		PublicMode: h.gate.Public(),
		Loaded:     h.loaded(),
		Version:    aresmem.Version().Core(),
	})
}

// NotFound answers unknown paths with a JSON 404.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Detail: "Not Found"})
}
