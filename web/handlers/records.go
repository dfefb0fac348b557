// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
	"strconv"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/query"
)

// Stats reports dataset totals.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.exec.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Cases lists distinct case ids. Query: limit (500), offset (0).
func (h *Handlers) Cases(w http.ResponseWriter, r *http.Request) {
	p := &params{r: r}
	limit := p.intOr("limit", query.DefaultCasesLimit)
	offset := p.intOr("offset", 0)
	if p.err != nil {
		writeError(w, p.err)
		return
	}
	cases, err := h.exec.ListCases(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

// Case returns every step of one case.
func (h *Handlers) Case(w http.ResponseWriter, r *http.Request) {
	records, err := h.exec.GetCase(r.Context(), r.PathValue("case_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Step returns one step of one case.
func (h *Handlers) Step(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("step_id")
	stepID, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, &aresmem.BadRequestError{Param: "step_id", Value: raw, Err: err})
		return
	}
	record, err := h.exec.GetStep(r.Context(), r.PathValue("case_id"), stepID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Search filters records.
// Query: q, min_fps, max_fps, step_id, min_bleeding, max_bleeding, limit (100), offset (0).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	p := &params{r: r}
	f := p.filters()
	limit := p.intOr("limit", query.DefaultSearchLimit)
	offset := p.intOr("offset", 0)
	if p.err != nil {
		writeError(w, p.err)
		return
	}
	records, err := h.exec.Search(r.Context(), f, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}
