// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed record.schema.json
var recordSchemaJSON string

// Validator checks dataset lines against the embedded record schema.
// The schema describes the shape of every field. DecodeRecord is more lenient:
// it keeps a line with a malformed optional field and leaves that field unset,
// so a line can decode and still fail validation.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the embedded record schema.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns nil if every field of the line has the type the schema expects.
func (v *Validator) Validate(line []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(line))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
	}
	return nil
}
