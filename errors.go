// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package aresmem

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the API key is missing or does not match.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMisconfigured is returned when the auth gate is enabled but no secret is configured.
	ErrMisconfigured = errors.New("server misconfigured: api key not set and public mode is false")
	// ErrRateLimited is returned when a client exceeds its request budget.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// NotFoundError is returned when a dataset file, case, or step does not exist.
type NotFoundError struct {
	What string // "data file", "case_id", "record"
	Key  string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found: %s: %v", e.What, e.Key, e.Err)
	}
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Detail is the short message returned to HTTP clients.
func (e *NotFoundError) Detail() string {
	return e.What + " not found"
}

// BadRequestError is returned when a query parameter cannot be parsed.
type BadRequestError struct {
	Param string
	Value string
	Err   error
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *BadRequestError) Unwrap() error {
	return e.Err
}

// Error code constants for logs and metrics labels.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeMisconfigured = "MISCONFIGURED"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnknown       = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	var nf *NotFoundError
	var br *BadRequestError
	switch {
	case errors.As(err, &nf):
		return ErrCodeNotFound
	case errors.As(err, &br):
		return ErrCodeBadRequest
	case errors.Is(err, ErrUnauthorized):
		return ErrCodeUnauthorized
	case errors.Is(err, ErrMisconfigured):
		return ErrCodeMisconfigured
	case errors.Is(err, ErrRateLimited):
		return ErrCodeRateLimited
	default:
		return ErrCodeUnknown
	}
}

// StatusCode maps an error to the HTTP status reported to the caller.
func StatusCode(err error) int {
	switch ErrorCode(err) {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
