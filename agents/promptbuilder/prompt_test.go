/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder_test

import (
	"encoding/json"
	"strings"
	"testing"

	"chainguard.dev/mcpagent/agents/promptbuilder"
	"github.com/google/go-cmp/cmp"
)

const event = `{
	"action": "opened",
	"issue": {
		"number": 42,
		"title": "Crash on start",
		"locked": false,
		"labels": [{"name": "bug"}, {"name": "agent"}],
		"milestone": null,
		"user": {"login": "octocat"}
	},
	"repository": {"name": "hello", "owner": {"login": "octo-org"}}
}`

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("Unmarshal() = %v", err)
	}
	return m
}

func TestRender(t *testing.T) {
	data := decode(t, event)

	tests := []struct {
		name     string
		template string
		want     string
	}{{
		name:     "no placeholders",
		template: "Just do it.",
		want:     "Just do it.",
	}, {
		name:     "dotted paths",
		template: "Fix {{repository.owner.login}}/{{repository.name}}#{{issue.number}}: {{issue.title}}",
		want:     "Fix octo-org/hello#42: Crash on start",
	}, {
		name:     "whitespace inside braces",
		template: "by {{ issue.user.login }}",
		want:     "by octocat",
	}, {
		name:     "list index",
		template: "first label {{issue.labels.0.name}}",
		want:     "first label bug",
	}, {
		name:     "missing key renders empty",
		template: "[{{pull_request.number}}][{{issue.nope}}][{{issue.labels.9.name}}]",
		want:     "[][][]",
	}, {
		name:     "null renders empty",
		template: "[{{issue.milestone}}]",
		want:     "[]",
	}, {
		name:     "boolean",
		template: "locked={{issue.locked}}",
		want:     "locked=false",
	}, {
		name:     "object renders as json",
		template: "{{issue.user}}",
		want:     `{"login":"octocat"}`,
	}, {
		name:     "unescaped forms",
		template: "{{{issue.title}}} {{& action}}",
		want:     "Crash on start opened",
	}, {
		name:     "repeated placeholder",
		template: "{{action}} {{action}}",
		want:     "opened opened",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := promptbuilder.Render(tt.template, data)
			if err != nil {
				t.Fatalf("Render() = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render(): got = %q, wanted = %q", got, tt.want)
			}
		})
	}
}

func TestRenderNoTransitiveSubstitution(t *testing.T) {
	data := map[string]any{"title": "{{secret}}", "secret": "leaked"}
	got, err := promptbuilder.Render("{{title}}", data)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if got != "{{secret}}" {
		t.Errorf("Render(): got = %q, wanted = %q", got, "{{secret}}")
	}
}

func TestRenderStruct(t *testing.T) {
	type owner struct {
		Login string `json:"login"`
	}
	data := struct {
		Owner owner `json:"owner"`
		Stars int   `json:"stars"`
	}{Owner: owner{Login: "octo"}, Stars: 3}

	got, err := promptbuilder.Render("{{owner.login}} has {{stars}}", data)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if want := "octo has 3"; got != want {
		t.Errorf("Render(): got = %q, wanted = %q", got, want)
	}
}

func TestRenderNilData(t *testing.T) {
	got, err := promptbuilder.Render("issue {{issue.number}}.", nil)
	if err != nil {
		t.Fatalf("Render() = %v", err)
	}
	if want := "issue ."; got != want {
		t.Errorf("Render(): got = %q, wanted = %q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		template string
		wantErr  string
	}{
		{"Hello {{name", "unclosed placeholder"},
		{"Hello {{{name}}", "unclosed placeholder"},
		{"Hello {{}}", "empty placeholder"},
		{"Hello {{a..b}}", "empty path segment"},
		{"{{#items}}x{{/items}}", "invalid placeholder"},
		{"{{a b}}", "invalid placeholder"},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			_, err := promptbuilder.Parse(tt.template)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse(): got = %v, wanted error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPaths(t *testing.T) {
	p := promptbuilder.MustParse("{{a.b}} {{c}} {{ a.b }} {{{d}}}")
	if diff := cmp.Diff([]string{"a.b", "c", "d"}, p.Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse() with malformed template: got = no panic, wanted = panic")
		}
	}()
	promptbuilder.MustParse("{{oops")
}
