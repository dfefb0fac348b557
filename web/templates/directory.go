// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package templates renders the HTML views of the query service.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// Endpoint is one row of the endpoint directory.
type Endpoint struct {
	Path        string
	Description string
}

// DirectoryData is the data shown on the index page.
type DirectoryData struct {
	Title     string
	Version   string
	Endpoints []Endpoint
	Auth      string
}

// Directory renders the endpoint directory as an HTML page.
func Directory(data DirectoryData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n",
			templ.EscapeString(data.Title)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h1>%s <small>%s</small></h1>\n",
			templ.EscapeString(data.Title), templ.EscapeString(data.Version)); err != nil {
			return err
		}
		if err := endpointTable(data.Endpoints).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<p>%s</p>\n</body></html>\n", templ.EscapeString(data.Auth)); err != nil {
			return err
		}
		return nil
	})
}

func endpointTable(endpoints []Endpoint) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<table>\n<tr><th>Path</th><th>Description</th></tr>\n"); err != nil {
			return err
		}
		for _, ep := range endpoints {
			if _, err := fmt.Fprintf(w, "<tr><td><code>%s</code></td><td>%s</td></tr>\n",
				templ.EscapeString(ep.Path), templ.EscapeString(ep.Description)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</table>\n")
		return err
	})
}
