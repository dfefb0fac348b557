// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"github.com/mdhender/aresmem/query"
	"github.com/mdhender/aresmem/web/auth"
	"github.com/mdhender/aresmem/web/store"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	exec    *query.Executor
	gate    *auth.Gate
	loaded  func() bool
	metrics bool
}

// Options configures optional parts of the HTTP surface.
type Options struct {
	// Metrics lists /metrics in the endpoint directory.
	Metrics bool
}

// New creates Handlers that answer queries from src and guard them with gate.
func New(src store.Source, gate *auth.Gate, opts Options) *Handlers {
	h := &Handlers{
		exec:    query.New(src),
		gate:    gate,
		loaded:  func() bool { return true },
		metrics: opts.Metrics,
	}
	if l, ok := src.(interface{ Loaded() bool }); ok {
		h.loaded = l.Loaded
	}
	return h
}

// Executor returns the query executor.
func (h *Handlers) Executor() *query.Executor {
	return h.exec
}
