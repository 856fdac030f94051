/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Prompt is a parsed template.
type Prompt struct {
	template string
	paths    []string
}

// Parse parses a template and collects its placeholders.
func Parse(template string) (*Prompt, error) {
	var paths []string
	if _, err := walkTemplate(template, func(path string) (string, error) {
		if !slices.Contains(paths, path) {
			paths = append(paths, path)
		}
		return "", nil
	}); err != nil {
		return nil, err
	}
	return &Prompt{template: template, paths: paths}, nil
}

// MustParse is like Parse but panics on a malformed template.
func MustParse(template string) *Prompt {
	p, err := Parse(template)
	if err != nil {
		panic(err)
	}
	return p
}

// Paths returns the distinct placeholder paths in order of first appearance.
func (p *Prompt) Paths() []string {
	return slices.Clone(p.paths)
}

// Render substitutes every placeholder with the value found at its path in
// data. Structs are looked up by their JSON field names.
func (p *Prompt) Render(data any) (string, error) {
	root, err := normalize(data)
	if err != nil {
		return "", err
	}
	return walkTemplate(p.template, func(path string) (string, error) {
		v, ok := lookup(root, path)
		if !ok {
			return "", nil
		}
		return format(path, v)
	})
}

// Render parses template and renders it against data.
func Render(template string, data any) (string, error) {
	p, err := Parse(template)
	if err != nil {
		return "", err
	}
	return p.Render(data)
}

// normalize converts data into the generic form produced by encoding/json so
// that lookups only deal with maps and slices.
func normalize(data any) (any, error) {
	switch data.(type) {
	case nil, map[string]any, []any:
		return data, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template data: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode template data: %w", err)
	}
	return v, nil
}

func lookup(v any, path string) (any, bool) {
	for seg := range strings.SplitSeq(path, ".") {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			v = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, v != nil
}

func format(path string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value of %q: %w", path, err)
	}
	return string(b), nil
}
