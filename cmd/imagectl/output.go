package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Skryldev/image-client/result"
)

// render writes v in the requested format.
func render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

// emit renders a successful result or returns its error.
func emit[T any](w io.Writer, format string, r result.Result[T], view func(T) any) error {
	data, err := r.Unwrap()
	if err != nil {
		return err
	}
	if view == nil {
		return render(w, format, data)
	}
	return render(w, format, view(data))
}
