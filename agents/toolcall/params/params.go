/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params

import (
	"encoding/json"
	"fmt"
	"math"
)

// Extract extracts a required parameter from args with type safety.
// Returns an error if the parameter is missing or cannot be converted to T.
func Extract[T any](args map[string]any, name string) (T, error) {
	var zero T

	value, exists := args[name]
	if !exists || value == nil {
		return zero, fmt.Errorf("%s parameter is required", name)
	}
	return convert[T](name, value)
}

// ExtractOptional extracts an optional parameter with a default value.
// Returns the default if the parameter is absent or null, or an error if type conversion fails.
func ExtractOptional[T any](args map[string]any, name string, defaultValue T) (T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return defaultValue, nil
	}
	return convert[T](name, value)
}

// ExtractSlice extracts an optional list parameter, converting each element to T.
// A missing or null parameter yields a nil slice.
func ExtractSlice[T any](args map[string]any, name string) ([]T, error) {
	value, exists := args[name]
	if !exists || value == nil {
		return nil, nil
	}
	if v, ok := value.([]T); ok {
		return v, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("%s parameter must be a list, got %T", name, value)
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := convert[T](fmt.Sprintf("%s[%d]", name, i), item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Bind decodes args into a value of type T through its JSON field tags.
// Pointer fields stay nil when the corresponding argument is absent.
func Bind[T any](args map[string]any) (T, error) {
	var out T
	b, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decoding arguments: %w", err)
	}
	return out, nil
}

func convert[T any](name string, value any) (T, error) {
	// Try direct type assertion
	if v, ok := value.(T); ok {
		return v, nil
	}

	// Handle common JSON numeric conversions
	if v, ok, err := convertNumeric[T](name, value); ok || err != nil {
		return v, err
	}

	var zero T
	return zero, fmt.Errorf("%s parameter must be of type %T, got %T", name, zero, value)
}

// convertNumeric handles JSON numeric conversions (float64 -> int/int32/int64).
// Fractional values are rejected rather than truncated.
func convertNumeric[T any](name string, value any) (T, bool, error) {
	var zero T
	f, ok := value.(float64)
	if !ok {
		if n, isNumber := value.(json.Number); isNumber {
			parsed, err := n.Float64()
			if err != nil {
				return zero, false, fmt.Errorf("%s parameter is not a number: %w", name, err)
			}
			f, ok = parsed, true
		}
	}
	if !ok {
		return zero, false, nil
	}

	switch any(zero).(type) {
	case float64:
		return any(f).(T), true, nil
	case int, int32, int64:
		if f != math.Trunc(f) {
			return zero, false, fmt.Errorf("%s parameter must be a whole number, got %v", name, f)
		}
	default:
		return zero, false, nil
	}

	switch any(zero).(type) {
	case int:
		return any(int(f)).(T), true, nil
	case int32:
		return any(int32(f)).(T), true, nil
	default:
		return any(int64(f)).(T), true, nil
	}
}
