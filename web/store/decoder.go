// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"bytes"
	"errors"

	"github.com/mdhender/aresmem/model"
)

var errBlankLine = errors.New("blank line")

// lineDecoder turns one dataset line into a Record and checks it against the record schema.
type lineDecoder struct {
	validator *model.Validator
}

func newLineDecoder() (*lineDecoder, error) {
	v, err := model.NewValidator()
	if err != nil {
		return nil, err
	}
	return &lineDecoder{validator: v}, nil
}

// decode returns an error for lines that are dropped: blank, not a JSON object,
// or missing a usable case_id or step_id.
func (d *lineDecoder) decode(line []byte) (*model.Record, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errBlankLine
	}
	return model.DecodeRecord(line)
}

// conform returns the schema violations of a line that decoded.
// Such lines are kept; the violating fields are unset on the record.
func (d *lineDecoder) conform(line []byte) error {
	return d.validator.Validate(bytes.TrimSpace(line))
}
