// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/web/metrics"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: encode response: %v", err)
	}
}

// writeError maps err to a status and a short message for the client.
// Server-side failures are logged with full detail and reported generically.
func writeError(w http.ResponseWriter, err error) {
	code := aresmem.ErrorCode(err)
	status := aresmem.StatusCode(err)
	metrics.QueryErrors.WithLabelValues(code).Inc()

	var detail string
	var nf *aresmem.NotFoundError
	var br *aresmem.BadRequestError
	switch {
	case errors.As(err, &nf) && nf.What == "data file":
		log.Printf("handlers: %v", err)
		detail = "Data file not found"
	case errors.As(err, &nf):
		detail = nf.Detail()
	case errors.As(err, &br):
		detail = br.Error()
	case errors.Is(err, aresmem.ErrUnauthorized):
		detail = "Unauthorized"
	case errors.Is(err, aresmem.ErrMisconfigured):
		log.Printf("handlers: %v", err)
		detail = "Server misconfigured: API key not set and public mode is false."
	case errors.Is(err, aresmem.ErrRateLimited):
		detail = err.Error()
	default:
		log.Printf("handlers: %v", err)
		detail = "Internal server error"
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}
