// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package query

import (
	"strings"

	"github.com/mdhender/aresmem/model"
)

// Filter decides whether a record is kept.
// Filters are pure functions of the record and never modify it.
type Filter func(r *model.Record) bool

// Filters holds the optional search parameters. A nil or empty field is not applied.
type Filters struct {
	Q           string
	StepID      *int
	MinFPS      *float64
	MaxFPS      *float64
	MinBleeding *float64
	MaxBleeding *float64
}

// Predicates returns one Filter per specified parameter.
func (f Filters) Predicates() []Filter {
	var preds []Filter
	if f.Q != "" {
		preds = append(preds, Substring(f.Q))
	}
	if f.StepID != nil {
		preds = append(preds, StepIs(*f.StepID))
	}
	if f.MinFPS != nil {
		preds = append(preds, AtLeast((*model.Record).ResolveFPS, *f.MinFPS))
	}
	if f.MaxFPS != nil {
		preds = append(preds, AtMost((*model.Record).ResolveFPS, *f.MaxFPS))
	}
	if f.MinBleeding != nil {
		preds = append(preds, AtLeast((*model.Record).ResolveBleedingScore, *f.MinBleeding))
	}
	if f.MaxBleeding != nil {
		preds = append(preds, AtMost((*model.Record).ResolveBleedingScore, *f.MaxBleeding))
	}
	return preds
}

// IsZero reports whether no parameter is specified.
func (f Filters) IsZero() bool {
	return len(f.Predicates()) == 0
}

// Substring keeps records whose canonical text contains q, ignoring case.
func Substring(q string) Filter {
	needle := strings.ToLower(q)
	return func(r *model.Record) bool {
		return strings.Contains(r.SearchText(), needle)
	}
}

// StepIs keeps records with the given step id.
func StepIs(stepID int) Filter {
	return func(r *model.Record) bool {
		return r.StepID == stepID
	}
}

// Resolver extracts an optional numeric value from a record.
type Resolver func(r *model.Record) (float64, bool)

// AtLeast keeps records whose resolved value is >= lo. Records without a value are dropped.
func AtLeast(resolve Resolver, lo float64) Filter {
	return func(r *model.Record) bool {
		v, ok := resolve(r)
		return ok && v >= lo
	}
}

// AtMost keeps records whose resolved value is <= hi. Records without a value are dropped.
func AtMost(resolve Resolver, hi float64) Filter {
	return func(r *model.Record) bool {
		v, ok := resolve(r)
		return ok && v <= hi
	}
}

// All is the conjunction of the filters. With no filters it keeps everything.
func All(filters ...Filter) Filter {
	return func(r *model.Record) bool {
		for _, keep := range filters {
			if !keep(r) {
				return false
			}
		}
		return true
	}
}
