// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingCaseID = errors.New("missing case_id")
	ErrMissingStepID = errors.New("missing step_id")
)

// DecodeRecord decodes one line of the dataset into a Record.
// Optional fields with unexpected types are left unset; only a missing or
// unusable case_id or step_id is an error.
func DecodeRecord(line []byte) (*Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	caseID, ok := parseCaseID(fields["case_id"])
	if !ok {
		return nil, ErrMissingCaseID
	}
	stepID, ok := parseStepID(fields["step_id"])
	if !ok {
		return nil, ErrMissingStepID
	}

	r := &Record{
		DatasetVersion:  optString(fields["dataset_version"]),
		SchemaVersion:   optString(fields["schema_version"]),
		CaseID:          caseID,
		StepID:          stepID,
		StepName:        optString(fields["step_name"]),
		RulesText:       optString(fields["rules_text"]),
		RulesJSON:       optObject(fields["rules_json"]),
		GeneratedAt:     optString(fields["generated_at"]),
		FPS:             parseNumber(fields["fps"]),
		NFrames:         parseNumber(fields["n_frames"]),
		DurationS:       parseNumber(fields["duration_s"]),
		Resolution:      optString(fields["resolution"]),
		BleedingScore:   parseNumber(fields["bleeding_score"]),
		MovementEconomy: parseNumber(fields["movement_economy"]),
		R:               parseNumber(fields["R"]),
		ROverG:          parseNumber(fields["R_over_G"]),
		VideoMeta:       decodeVideoMeta(fields["video_meta"]),
		Metrics:         decodeMetrics(fields["metrics"]),
		search:          strings.ToLower(CanonicalText(line)),
	}
	return r, nil
}

func decodeVideoMeta(raw json.RawMessage) *VideoMeta {
	fields, ok := objectFields(raw)
	if !ok {
		return nil
	}
	return &VideoMeta{
		Resolution: optString(fields["resolution"]),
		FPS:        parseNumber(fields["fps"]),
		NFrames:    parseNumber(fields["n_frames"]),
		DurationS:  parseNumber(fields["duration_s"]),
		Format:     optString(fields["format"]),
		SourceFile: optString(fields["source_file"]),
	}
}

func decodeMetrics(raw json.RawMessage) *Metrics {
	fields, ok := objectFields(raw)
	if !ok {
		return nil
	}
	return &Metrics{
		BleedingScore:      parseNumber(fields["bleeding_score"]),
		MovementEconomy:    parseNumber(fields["movement_economy"]),
		R:                  parseNumber(fields["R"]),
		ROverG:             parseNumber(fields["R_over_G"]),
		MovementIndexDelta: parseNumber(fields["movement_index_delta"]),
	}
}

// parseCaseID accepts a string or a number; numbers keep their literal text.
func parseCaseID(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	if n := parseNumber(raw); n.Valid {
		return string(raw), true
	}
	return "", false
}

// parseStepID casts to an integer: integral literals parse exactly, other numbers
// truncate toward zero, strings must hold an integer.
func parseStepID(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, false
		}
		return v, true
	}
	if v, err := strconv.ParseInt(string(raw), 10, 0); err == nil {
		return int(v), true
	}
	n := parseNumber(raw)
	if !n.Valid || math.IsNaN(n.Value) || n.Value < math.MinInt || n.Value >= math.MaxInt {
		return 0, false
	}
	return int(n.Value), true
}

func optString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

func optObject(raw json.RawMessage) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func objectFields(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

// CanonicalText renders a JSON document on one line with ", " and ": " separators,
// preserving key order and number literals. Strings are re-quoted with only the
// escapes JSON requires, so non-ASCII text appears as itself.
func CanonicalText(doc []byte) string {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	type frame struct {
		object bool
		n      int // tokens written in this container
	}
	var stack []frame
	var sb strings.Builder
	sb.Grow(len(doc) + len(doc)/4)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return string(doc)
		}

		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			sb.WriteByte(byte(d))
			continue
		}
		if len(stack) != 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.object && top.n%2 == 1:
				sb.WriteString(": ")
			case top.n > 0:
				sb.WriteString(", ")
			}
			top.n++
		}

		switch v := tok.(type) {
		case json.Delim:
			sb.WriteByte(byte(v))
			stack = append(stack, frame{object: v == '{'})
		case string:
			writeQuoted(&sb, v)
		case json.Number:
			sb.WriteString(v.String())
		case bool:
			sb.WriteString(strconv.FormatBool(v))
		case nil:
			sb.WriteString("null")
		}
	}
	return sb.String()
}

func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		default:
			if c < 0x20 {
				fmt.Fprintf(sb, `\u%04x`, c)
			} else {
				sb.WriteRune(c)
			}
		}
	}
	sb.WriteByte('"')
}
