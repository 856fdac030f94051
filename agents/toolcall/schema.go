/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package toolcall

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"
)

// Schema types understood by Validate. An empty Type accepts any value.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
	TypeNull    = "null"
)

// Schema is the subset of JSON Schema used to describe tool arguments.
// Keywords outside this subset are dropped when parsing.
type Schema struct {
	Type        string
	Description string
	// Nullable is set when the source listed "null" alongside Type.
	Nullable             bool
	Enum                 []any
	Properties           map[string]*Schema
	Required             []string
	Items                *Schema
	AdditionalProperties *bool
	// AnyOf holds the alternatives of a union with more than one non-null
	// member. Type is empty when it is set.
	AnyOf []*Schema
}

// wireSchema is the JSON form of Schema.
type wireSchema struct {
	Type                 json.RawMessage    `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Enum                 []any              `json:"enum,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties json.RawMessage    `json:"additionalProperties,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty"`
	OneOf                []*Schema          `json:"oneOf,omitempty"`
}

// ParseSchema parses a JSON Schema document. An empty document describes an
// object with no declared properties.
func ParseSchema(raw json.RawMessage) (*Schema, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return &Schema{Type: TypeObject}, nil
	}
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &s, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Schema) UnmarshalJSON(b []byte) error {
	// Boolean schemas ("true" / "false") carry no constraints worth keeping.
	if t := strings.TrimSpace(string(b)); t == "true" || t == "false" {
		*s = Schema{}
		return nil
	}
	var w wireSchema
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Schema{
		Description: w.Description,
		Enum:        w.Enum,
		Properties:  w.Properties,
		Required:    w.Required,
		Items:       w.Items,
	}

	if len(w.Type) > 0 {
		var single string
		if err := json.Unmarshal(w.Type, &single); err == nil {
			s.Type = single
		} else {
			var multi []string
			if err := json.Unmarshal(w.Type, &multi); err != nil {
				return fmt.Errorf("type must be a string or a list of strings: %w", err)
			}
			var types []string
			for _, t := range multi {
				if t == TypeNull {
					s.Nullable = true
					continue
				}
				types = append(types, t)
			}
			switch len(types) {
			case 0:
				if s.Nullable {
					s.Type, s.Nullable = TypeNull, false
				}
			case 1:
				s.Type = types[0]
			default:
				for _, t := range types {
					s.AnyOf = append(s.AnyOf, &Schema{Type: t})
				}
			}
		}
	}

	// Optional values are commonly expressed as anyOf [T, null]. A single
	// non-null alternative is folded into s; more are kept as a union.
	if s.Type == "" && len(s.AnyOf) == 0 {
		var alts []*Schema
		for _, alt := range append(w.AnyOf, w.OneOf...) {
			if alt == nil {
				continue
			}
			if alt.Type == TypeNull && len(alt.AnyOf) == 0 {
				s.Nullable = true
				continue
			}
			alts = append(alts, alt)
		}
		switch {
		case len(alts) == 1:
			alt := alts[0]
			*s = Schema{
				Type:                 alt.Type,
				Description:          s.Description,
				Nullable:             s.Nullable || alt.Nullable,
				Enum:                 alt.Enum,
				Properties:           alt.Properties,
				Required:             alt.Required,
				Items:                alt.Items,
				AdditionalProperties: alt.AdditionalProperties,
				AnyOf:                alt.AnyOf,
			}
		case len(alts) > 1:
			s.AnyOf = alts
		}
	}

	if len(w.AdditionalProperties) > 0 {
		var allowed bool
		if err := json.Unmarshal(w.AdditionalProperties, &allowed); err == nil {
			s.AdditionalProperties = &allowed
		}
		// A schema for additional properties is accepted without checking.
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	w := wireSchema{
		Description: s.Description,
		Enum:        s.Enum,
		Properties:  s.Properties,
		Required:    s.Required,
		Items:       s.Items,
	}
	if s.Type != "" {
		var err error
		if s.Nullable {
			w.Type, err = json.Marshal([]string{s.Type, TypeNull})
		} else {
			w.Type, err = json.Marshal(s.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	if len(s.AnyOf) > 0 {
		w.AnyOf = s.AnyOf
		if s.Nullable {
			w.AnyOf = append(slices.Clone(s.AnyOf), &Schema{Type: TypeNull})
		}
	}
	if s.AdditionalProperties != nil {
		b, err := json.Marshal(*s.AdditionalProperties)
		if err != nil {
			return nil, err
		}
		w.AdditionalProperties = b
	}
	return json.Marshal(w)
}

// Map returns the schema as a generic JSON object, the form most provider
// SDKs accept for tool parameters.
func (s *Schema) Map() map[string]any {
	if s == nil {
		return map[string]any{"type": TypeObject, "properties": map[string]any{}}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": TypeObject}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]any{"type": TypeObject}
	}
	return m
}

// ValidationError reports a single argument that does not match its schema.
type ValidationError struct {
	// Path is the dotted location of the value, empty for the root.
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks decoded tool arguments against the schema. All problems
// are reported, joined into one error.
func (s *Schema) Validate(args map[string]any) error {
	if s == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}
	var errs []error
	s.validate("", args, &errs)
	return errors.Join(errs...)
}

func (s *Schema) validate(path string, v any, errs *[]error) {
	fail := func(format string, a ...any) {
		*errs = append(*errs, &ValidationError{Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if v == nil {
		switch {
		case s.Nullable || s.Type == TypeNull:
		case len(s.AnyOf) > 0:
			if !s.matchesAny(v) {
				fail("must match one of %s, got null", describeUnion(s.AnyOf))
			}
		case s.Type != "":
			fail("must be %s, got null", s.Type)
		}
		return
	}

	if len(s.AnyOf) > 0 && !s.matchesAny(v) {
		fail("must match one of %s, got %s", describeUnion(s.AnyOf), describe(v))
		return
	}

	switch s.Type {
	case "":
		// Untyped schemas still constrain object members when they list any.
		if obj, ok := v.(map[string]any); ok && (len(s.Properties) > 0 || len(s.Required) > 0) {
			s.validateObject(path, obj, errs)
		}
	case TypeString:
		if _, ok := v.(string); !ok {
			fail("must be a string, got %s", describe(v))
			return
		}
	case TypeNumber:
		if _, ok := number(v); !ok {
			fail("must be a number, got %s", describe(v))
			return
		}
	case TypeInteger:
		f, ok := number(v)
		if !ok {
			fail("must be an integer, got %s", describe(v))
			return
		}
		if f != math.Trunc(f) {
			fail("must be an integer, got %v", f)
			return
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			fail("must be a boolean, got %s", describe(v))
			return
		}
	case TypeNull:
		fail("must be null, got %s", describe(v))
		return
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			fail("must be an array, got %s", describe(v))
			return
		}
		if s.Items != nil {
			for i, item := range items {
				s.Items.validate(fmt.Sprintf("%s[%d]", path, i), item, errs)
			}
		}
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			fail("must be an object, got %s", describe(v))
			return
		}
		s.validateObject(path, obj, errs)
	default:
		// Unknown types are accepted as-is.
	}

	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return jsonEqual(e, v) }) {
		fail("must be one of %s", formatEnum(s.Enum))
	}
}

// matchesAny reports whether v is valid against at least one alternative.
func (s *Schema) matchesAny(v any) bool {
	for _, alt := range s.AnyOf {
		if alt == nil {
			return true
		}
		var errs []error
		alt.validate("", v, &errs)
		if len(errs) == 0 {
			return true
		}
	}
	return false
}

func describeUnion(alts []*Schema) string {
	parts := make([]string, 0, len(alts))
	for _, alt := range alts {
		t := "any"
		if alt != nil && alt.Type != "" {
			t = alt.Type
		}
		parts = append(parts, t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s *Schema) validateObject(path string, obj map[string]any, errs *[]error) {
	for _, name := range s.Required {
		if _, ok := obj[name]; !ok {
			*errs = append(*errs, &ValidationError{Path: join(path, name), Message: "is required"})
		}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		prop, ok := s.Properties[k]
		switch {
		case ok && prop != nil:
			prop.validate(join(path, k), obj[k], errs)
		case !ok && s.AdditionalProperties != nil && !*s.AdditionalProperties:
			*errs = append(*errs, &ValidationError{Path: join(path, k), Message: "is not a recognized property"})
		}
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// number reports the float value of a decoded JSON number.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func jsonEqual(a, b any) bool {
	if fa, ok := number(a); ok {
		fb, ok := number(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func describe(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func formatEnum(values []any) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			parts = append(parts, fmt.Sprint(v))
			continue
		}
		parts = append(parts, string(b))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
