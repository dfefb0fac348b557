// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package query

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/model"
	"github.com/mdhender/aresmem/web/store"
)

const (
	DefaultSearchLimit = 100
	DefaultCasesLimit  = 500
	casesExampleSize   = 10
)

// Executor answers queries over a record source.
type Executor struct {
	src store.Source
}

// New creates an Executor over the given source.
func New(src store.Source) *Executor {
	return &Executor{src: src}
}

// Stats summarizes the dataset.
type Stats struct {
	TotalRecords int      `json:"total_records"`
	NCases       int      `json:"n_cases"`
	NSteps       int      `json:"n_steps"`
	CasesExample []string `json:"cases_example"`
}

// Search applies the filters in load order and returns the requested page.
func (e *Executor) Search(ctx context.Context, f Filters, limit, offset int) ([]*model.Record, error) {
	records, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	keep := All(f.Predicates()...)
	matches := []*model.Record{}
	for _, r := range records {
		if keep(r) {
			matches = append(matches, r)
		}
	}
	return Paginate(matches, limit, offset), nil
}

// Stats returns the record count, distinct case and step counts, and the first sorted case ids.
func (e *Executor) Stats(ctx context.Context) (Stats, error) {
	records, err := e.src.Load(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	cases := distinctCases(records)
	steps := make(map[int]struct{})
	for _, r := range records {
		steps[r.StepID] = struct{}{}
	}
	return Stats{
		TotalRecords: len(records),
		NCases:       len(cases),
		NSteps:       len(steps),
		CasesExample: Paginate(cases, casesExampleSize, 0),
	}, nil
}

// ListCases returns a page of the distinct case ids in ascending order.
func (e *Executor) ListCases(ctx context.Context, limit, offset int) ([]string, error) {
	records, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return Paginate(distinctCases(records), limit, offset), nil
}

// GetCase returns every record of the case in load order.
func (e *Executor) GetCase(ctx context.Context, caseID string) ([]*model.Record, error) {
	records, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	var subset []*model.Record
	for _, r := range records {
		if r.CaseID == caseID {
			subset = append(subset, r)
		}
	}
	if len(subset) == 0 {
		return nil, &aresmem.NotFoundError{What: "case_id", Key: caseID}
	}
	return subset, nil
}

// GetStep returns the first record in load order matching both keys.
func (e *Executor) GetStep(ctx context.Context, caseID string, stepID int) (*model.Record, error) {
	records, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("get step: %w", err)
	}
	for _, r := range records {
		if r.CaseID == caseID && r.StepID == stepID {
			return r, nil
		}
	}
	return nil, &aresmem.NotFoundError{What: "record", Key: caseID + "/" + strconv.Itoa(stepID)}
}

func distinctCases(records []*model.Record) []string {
	seen := make(map[string]struct{})
	cases := []string{}
	for _, r := range records {
		if _, ok := seen[r.CaseID]; ok {
			continue
		}
		seen[r.CaseID] = struct{}{}
		cases = append(cases, r.CaseID)
	}
	sort.Strings(cases)
	return cases
}

// Paginate returns items[offset:offset+limit], clamped to the slice.
// A negative offset is treated as zero and a negative limit returns an empty page.
func Paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
