// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional numeric field.
// It decodes from a JSON number or a numeric string; anything else leaves it unset.
// Present records that the key appeared in the source, even as null.
type Number struct {
	Value   float64
	Valid   bool
	Present bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true, Present: true}
}

// Get returns the value and whether it is set.
func (n Number) Get() (float64, bool) {
	return n.Value, n.Valid
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON never fails. Values that are not usable as numbers decode as unset.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = parseNumber(data)
	return nil
}

func parseNumber(raw json.RawMessage) Number {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Number{}
	}
	present := Number{Present: true}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return present
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return present
		}
		return NewNumber(v)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return present
		}
		return NewNumber(v)
	}
	// null, true, false, objects and arrays
	return present
}
