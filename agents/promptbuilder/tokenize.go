/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// resolveFunc is a callback that provides a replacement for a placeholder path
type resolveFunc func(path string) (string, error)

// walkTemplate tokenizes the template and calls resolve for each placeholder
func walkTemplate(template string, resolve resolveFunc) (string, error) {
	var result strings.Builder

	for len(template) > 0 {
		start := strings.Index(template, "{{")
		if start == -1 {
			result.WriteString(template)
			break
		}
		result.WriteString(template[:start])

		open, closing := "{{", "}}"
		if strings.HasPrefix(template[start:], "{{{") {
			open, closing = "{{{", "}}}"
		}
		end := strings.Index(template[start+len(open):], closing)
		if end == -1 {
			return "", fmt.Errorf("unclosed placeholder: missing %q", closing)
		}
		inner := template[start+len(open) : start+len(open)+end]
		template = template[start+len(open)+end+len(closing):]

		path := strings.TrimSpace(inner)
		if open == "{{" {
			path = strings.TrimSpace(strings.TrimPrefix(path, "&"))
		}
		if err := validatePath(path); err != nil {
			return "", err
		}
		replacement, err := resolve(path)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)
	}

	return result.String(), nil
}

// validatePath checks that path is a dotted sequence of segments made of
// letters, digits, underscores and hyphens.
func validatePath(path string) error {
	if path == "" {
		return errors.New("empty placeholder")
	}
	for seg := range strings.SplitSeq(path, ".") {
		if seg == "" {
			return fmt.Errorf("invalid placeholder %q: empty path segment", path)
		}
		for _, r := range seg {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' {
				return fmt.Errorf("invalid placeholder %q", path)
			}
		}
	}
	return nil
}
