/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"context"
	"encoding/json"
	"fmt"
)

// Descriptor describes a callable tool (name, description, argument schema).
type Descriptor struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Schema      *Schema `json:"input_schema,omitempty"`
	// RawSchema is the input schema as the tool server published it.
	// Schema is parsed from it and only used to check arguments.
	RawSchema json.RawMessage `json:"-"`
}

// Parameters returns the argument schema to advertise to a model: the
// published schema when there is one, else the parsed Schema. Unions and
// keywords Schema does not model survive only in the published form.
func (d Descriptor) Parameters() map[string]any {
	if len(d.RawSchema) > 0 {
		var m map[string]any
		if err := json.Unmarshal(d.RawSchema, &m); err == nil && m != nil {
			if _, ok := m["type"]; !ok {
				m["type"] = TypeObject
			}
			// Not every provider accepts the dialect marker.
			delete(m, "$schema")
			return m
		}
	}
	return d.Schema.Map()
}

// Handler executes a tool with decoded arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Tool is a tool implemented in-process.
type Tool struct {
	Descriptor
	Handler Handler
}

// FormatResult renders a tool result as message content.
// Strings are used verbatim, anything else is encoded as JSON, and "OK" stands
// in when the result carries nothing to show.
func FormatResult(v any) string {
	var s string
	switch r := v.(type) {
	case nil:
	case string:
		s = r
	case []byte:
		s = string(r)
	case json.RawMessage:
		s = string(r)
	default:
		b, err := json.Marshal(v)
		switch {
		case err != nil:
			s = fmt.Sprint(v)
		case string(b) != "null":
			s = string(b)
		}
	}
	if s == "" {
		return "OK"
	}
	return s
}
