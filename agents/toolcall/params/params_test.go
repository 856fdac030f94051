/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package params_test

import (
	"encoding/json"
	"strings"
	"testing"

	"chainguard.dev/mcpagent/agents/toolcall/params"
	"github.com/google/go-cmp/cmp"
)

func TestExtract(t *testing.T) {
	args := map[string]any{
		"name":     "test",
		"count":    float64(42),
		"flag":     true,
		"bigcount": float64(9999999999),
		"empty":    "",
		"zero":     float64(0),
	}

	t.Run("string", func(t *testing.T) {
		v, err := params.Extract[string](args, "name")
		if err != nil {
			t.Fatal(err)
		}
		if v != "test" {
			t.Errorf("got %q, want %q", v, "test")
		}
	})

	t.Run("empty string", func(t *testing.T) {
		v, err := params.Extract[string](args, "empty")
		if err != nil {
			t.Fatal(err)
		}
		if v != "" {
			t.Errorf("got %q, want empty string", v)
		}
	})

	t.Run("int from float64", func(t *testing.T) {
		v, err := params.Extract[int](args, "count")
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	})

	t.Run("int32 from float64", func(t *testing.T) {
		v, err := params.Extract[int32](args, "count")
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	})

	t.Run("int64 from float64", func(t *testing.T) {
		v, err := params.Extract[int64](args, "bigcount")
		if err != nil {
			t.Fatal(err)
		}
		if v != 9999999999 {
			t.Errorf("got %d, want 9999999999", v)
		}
	})

	t.Run("float64", func(t *testing.T) {
		v, err := params.Extract[float64](args, "count")
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Errorf("got %f, want 42", v)
		}
	})

	t.Run("bool", func(t *testing.T) {
		v, err := params.Extract[bool](args, "flag")
		if err != nil {
			t.Fatal(err)
		}
		if !v {
			t.Error("got false, want true")
		}
	})

	t.Run("zero int", func(t *testing.T) {
		v, err := params.Extract[int](args, "zero")
		if err != nil {
			t.Fatal(err)
		}
		if v != 0 {
			t.Errorf("got %d, want 0", v)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := params.Extract[string](args, "missing")
		if err == nil {
			t.Fatal("expected error for missing parameter")
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := params.Extract[bool](args, "name")
		if err == nil {
			t.Fatal("expected error for wrong type")
		}
	})

	t.Run("null is missing", func(t *testing.T) {
		_, err := params.Extract[string](map[string]any{"name": nil}, "name")
		if err == nil || !strings.Contains(err.Error(), "name parameter is required") {
			t.Fatalf("got %v, want a required parameter error", err)
		}
	})

	t.Run("fractional int", func(t *testing.T) {
		_, err := params.Extract[int](map[string]any{"n": 1.5}, "n")
		if err == nil || !strings.Contains(err.Error(), "whole number") {
			t.Fatalf("got %v, want a whole number error", err)
		}
	})

	t.Run("json number", func(t *testing.T) {
		v, err := params.Extract[int64](map[string]any{"n": json.Number("17")}, "n")
		if err != nil {
			t.Fatal(err)
		}
		if v != 17 {
			t.Errorf("got %d, want 17", v)
		}
	})
}

func TestExtractOptional(t *testing.T) {
	args := map[string]any{
		"name":  "test",
		"count": float64(42),
	}

	t.Run("present", func(t *testing.T) {
		v, err := params.ExtractOptional(args, "name", "default")
		if err != nil {
			t.Fatal(err)
		}
		if v != "test" {
			t.Errorf("got %q, want %q", v, "test")
		}
	})

	t.Run("missing uses default", func(t *testing.T) {
		v, err := params.ExtractOptional(args, "missing", "default")
		if err != nil {
			t.Fatal(err)
		}
		if v != "default" {
			t.Errorf("got %q, want %q", v, "default")
		}
	})

	t.Run("int conversion", func(t *testing.T) {
		v, err := params.ExtractOptional(args, "count", 0)
		if err != nil {
			t.Fatal(err)
		}
		if v != 42 {
			t.Errorf("got %d, want 42", v)
		}
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, err := params.ExtractOptional(args, "name", 0)
		if err == nil {
			t.Fatal("expected error for type mismatch")
		}
	})
}

func TestExtractSlice(t *testing.T) {
	args := map[string]any{
		"labels": []any{"bug", "help wanted"},
		"ids":    []any{float64(1), float64(2)},
		"mixed":  []any{"a", float64(1)},
		"scalar": "nope",
		"typed":  []string{"x"},
	}

	t.Run("strings", func(t *testing.T) {
		v, err := params.ExtractSlice[string](args, "labels")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"bug", "help wanted"}, v); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("ints", func(t *testing.T) {
		v, err := params.ExtractSlice[int](args, "ids")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]int{1, 2}, v); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("already typed", func(t *testing.T) {
		v, err := params.ExtractSlice[string](args, "typed")
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"x"}, v); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("missing", func(t *testing.T) {
		v, err := params.ExtractSlice[string](args, "missing")
		if err != nil {
			t.Fatal(err)
		}
		if v != nil {
			t.Errorf("got %v, want nil", v)
		}
	})

	t.Run("bad element", func(t *testing.T) {
		_, err := params.ExtractSlice[string](args, "mixed")
		if err == nil || !strings.Contains(err.Error(), "mixed[1]") {
			t.Fatalf("got %v, want an error naming mixed[1]", err)
		}
	})

	t.Run("not a list", func(t *testing.T) {
		if _, err := params.ExtractSlice[string](args, "scalar"); err == nil {
			t.Fatal("expected error for non-list parameter")
		}
	})
}

func TestBind(t *testing.T) {
	type patch struct {
		Title  *string  `json:"title"`
		Body   *string  `json:"body"`
		Number int      `json:"number"`
		Labels []string `json:"labels"`
	}

	got, err := params.Bind[patch](map[string]any{
		"title":  "New title",
		"number": float64(7),
		"labels": []any{"a"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Title == nil || *got.Title != "New title" {
		t.Errorf("got title %v, want %q", got.Title, "New title")
	}
	if got.Body != nil {
		t.Errorf("got body %q, want nil", *got.Body)
	}
	if got.Number != 7 {
		t.Errorf("got number %d, want 7", got.Number)
	}
	if diff := cmp.Diff([]string{"a"}, got.Labels); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}

	if _, err := params.Bind[patch](map[string]any{"number": "seven"}); err == nil {
		t.Error("expected error for mistyped field")
	}
}
