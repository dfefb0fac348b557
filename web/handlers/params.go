// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mdhender/aresmem"
	"github.com/mdhender/aresmem/query"
)

// params reads typed query parameters, remembering the first parse failure.
// Empty values are treated as absent.
type params struct {
	r   *http.Request
	err error
}

func (p *params) get(name string) string {
	return strings.TrimSpace(p.r.URL.Query().Get(name))
}

func (p *params) intOr(name string, def int) int {
	if v := p.optInt(name); v != nil {
		return *v
	}
	return def
}

func (p *params) optInt(name string) *int {
	s := p.get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(name, s, err)
		return nil
	}
	return &v
}

func (p *params) optFloat(name string) *float64 {
	s := p.get(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(name, s, err)
		return nil
	}
	return &v
}

func (p *params) fail(name, value string, err error) {
	if p.err == nil {
		p.err = &aresmem.BadRequestError{Param: name, Value: value, Err: err}
	}
}

func (p *params) filters() query.Filters {
	return query.Filters{
		Q:           p.r.URL.Query().Get("q"),
		StepID:      p.optInt("step_id"),
		MinFPS:      p.optFloat("min_fps"),
		MaxFPS:      p.optFloat("max_fps"),
		MinBleeding: p.optFloat("min_bleeding"),
		MaxBleeding: p.optFloat("max_bleeding"),
	}
}
