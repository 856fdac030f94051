/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package schema reflects Go argument structs into JSON Schema documents for
// tool input descriptions.
package schema

import (
	"encoding/json"
	"fmt"

	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/invopop/jsonschema"
)

// Generator wraps jsonschema.Reflector with project defaults.
type Generator struct {
	reflector jsonschema.Reflector
}

// NewGenerator constructs a generator wired with the defaults we need for tool schemas.
func NewGenerator() *Generator {
	return &Generator{
		reflector: jsonschema.Reflector{
			RequiredFromJSONSchemaTags: true,
			ExpandedStruct:             true,
			AllowAdditionalProperties:  true,
			DoNotReference:             true,
		},
	}
}

// Reflect returns the JSON schema for the provided value.
func (g *Generator) Reflect(v any) *jsonschema.Schema {
	s := g.reflector.Reflect(v)
	// Tool servers advertise bare schemas.
	s.Version, s.ID = "", ""
	return s
}

// Reflect derives the JSON schema for the provided value using a default generator.
func Reflect(v any) *jsonschema.Schema {
	return NewGenerator().Reflect(v)
}

// ReflectType allocates a zero value of T and reflects it to a schema.
func ReflectType[T any]() *jsonschema.Schema {
	var zero T
	return Reflect(&zero)
}

// Raw returns the encoded JSON schema for T, suitable for advertising as a
// tool input schema.
func Raw[T any]() (json.RawMessage, error) {
	b, err := json.Marshal(ReflectType[T]())
	if err != nil {
		return nil, fmt.Errorf("encoding schema for %T: %w", *new(T), err)
	}
	return b, nil
}

// ToolSchema reflects T into the structured schema used for argument validation.
func ToolSchema[T any]() (*toolcall.Schema, error) {
	raw, err := Raw[T]()
	if err != nil {
		return nil, err
	}
	return toolcall.ParseSchema(raw)
}
