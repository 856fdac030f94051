/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package claude_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/provider/claude"
	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var toolUseStream = []string{
	`{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":12,"output_tokens":1}}}`,
	`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Let me "}}`,
	`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"look."}}`,
	`{"type":"content_block_stop","index":0}`,
	`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_issue","input":{}}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"number\""}}`,
	`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":": 12}"}}`,
	`{"type":"content_block_stop","index":1}`,
	`{"type":"message_delta","delta":{"stop_reason":"tool_use","stop_sequence":null},"usage":{"output_tokens":30}}`,
	`{"type":"message_stop"}`,
}

func maxTokensStream(text string) []string {
	return []string{
		`{"type":"message_start","message":{"id":"msg_2","type":"message","role":"assistant","model":"claude-sonnet-4-5","content":[],"stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":1}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		fmt.Sprintf(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":%q}}`, text),
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"stop_reason":"max_tokens","stop_sequence":null},"usage":{"output_tokens":8192}}`,
		`{"type":"message_stop"}`,
	}
}

// fakeMessages serves a canned event stream from /v1/messages.
type fakeMessages struct {
	events []string
	body   map[string]any
}

func (f *fakeMessages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/messages" {
		http.NotFound(w, r)
		return
	}
	b, _ := io.ReadAll(r.Body)
	f.body = nil
	_ = json.Unmarshal(b, &f.body)

	w.Header().Set("Content-Type", "text/event-stream")
	for _, e := range f.events {
		var typ struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal([]byte(e), &typ)
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", typ.Type, e)
	}
}

func newClient(t *testing.T, f http.Handler) *claude.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := claude.New("sk-ant-test", claude.WithBaseURL(srv.URL), claude.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestCompleteToolUse(t *testing.T) {
	f := &fakeMessages{events: toolUseStream}
	c := newClient(t, f)

	first := chat.ToolCall{ID: "toolu_a", Name: "ping"}
	second := chat.ToolCall{ID: "toolu_b", Name: "explode", Arguments: `{"x":1}`}
	temp := 1.5
	resp, err := c.Complete(context.Background(), chat.Request{
		Model: "claude-sonnet-4-5",
		Messages: []chat.Message{
			chat.System("be brief"),
			chat.User("Look at issue 12"),
			chat.Assistant("", first, second),
			chat.ToolResult(first, "OK"),
			chat.ToolFailure(second, "Error: boom"),
		},
		Tools: []toolcall.Descriptor{{
			Name:        "get_issue",
			Description: "Get an issue",
			Schema: &toolcall.Schema{
				Type:       toolcall.TypeObject,
				Properties: map[string]*toolcall.Schema{"number": {Type: toolcall.TypeInteger}},
				Required:   []string{"number"},
			},
		}},
		Temperature: &temp,
		ToolChoice:  "auto",
	})
	require.NoError(t, err)

	requested := chat.ToolCall{ID: "toolu_1", Name: "get_issue", Arguments: `{"number": 12}`}
	want := &chat.Response{
		Message:      chat.Assistant("Let me look.", requested),
		FinishReason: chat.FinishToolCalls,
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("Complete() mismatch (-want +got):\n%s", diff)
	}

	if got := f.body["temperature"]; got != 1.0 {
		t.Errorf("temperature: got = %v, wanted it clamped to 1", got)
	}
	system, _ := f.body["system"].([]any)
	if len(system) != 1 || system[0].(map[string]any)["text"] != "be brief" {
		t.Errorf("system: got = %v, wanted the system message", f.body["system"])
	}

	msgs, _ := f.body["messages"].([]any)
	var roles []string
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	// Both tool results travel in one user turn.
	if diff := cmp.Diff([]string{"user", "assistant", "user"}, roles); diff != "" {
		t.Fatalf("message roles mismatch (-want +got):\n%s", diff)
	}
	results := msgs[2].(map[string]any)["content"].([]any)
	if len(results) != 2 {
		t.Fatalf("tool results: got = %d, wanted = 2", len(results))
	}
	if got := results[1].(map[string]any)["is_error"]; got != true {
		t.Errorf("is_error on failed result: got = %v, wanted = true", got)
	}
	uses := msgs[1].(map[string]any)["content"].([]any)
	if got := uses[0].(map[string]any)["input"]; !cmp.Equal(got, map[string]any{}) {
		t.Errorf("empty tool input: got = %v, wanted = {}", got)
	}

	tools := f.body["tools"].([]any)
	schema := tools[0].(map[string]any)["input_schema"]
	wantSchema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"number": map[string]any{"type": "integer"}},
		"required":   []any{"number"},
	}
	if diff := cmp.Diff(wantSchema, schema); diff != "" {
		t.Errorf("input_schema mismatch (-want +got):\n%s", diff)
	}
	if got := f.body["tool_choice"].(map[string]any)["type"]; got != "auto" {
		t.Errorf("tool_choice: got = %v, wanted = auto", got)
	}
}

func TestCompleteAnswersSkippedCalls(t *testing.T) {
	f := &fakeMessages{events: maxTokensStream("ok")}
	c := newClient(t, f)

	ran := chat.ToolCall{ID: "toolu_1", Name: "get_issue", Arguments: `{"number":1}`}
	skipped := chat.ToolCall{ID: "toolu_2", Name: "missing_tool"}
	_, err := c.Complete(context.Background(), chat.Request{
		Model: "claude-sonnet-4-5",
		Messages: []chat.Message{
			chat.User("go"),
			chat.Assistant("", ran, skipped),
			chat.ToolResult(ran, "Error: nothing to report"),
			chat.Assistant("continuing"),
		},
	})
	require.NoError(t, err)

	msgs, _ := f.body["messages"].([]any)
	var roles []string
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	if diff := cmp.Diff([]string{"user", "assistant", "user", "assistant"}, roles); diff != "" {
		t.Fatalf("message roles mismatch (-want +got):\n%s", diff)
	}

	type result struct {
		ID      string
		IsError bool
	}
	var got []result
	for _, b := range msgs[2].(map[string]any)["content"].([]any) {
		block := b.(map[string]any)
		isErr, _ := block["is_error"].(bool)
		got = append(got, result{ID: block["tool_use_id"].(string), IsError: isErr})
	}
	// The first call succeeded even though its output reads like an error.
	want := []result{{ID: "toolu_1"}, {ID: "toolu_2", IsError: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tool results mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletePublishedSchema(t *testing.T) {
	f := &fakeMessages{events: maxTokensStream("ok")}
	c := newClient(t, f)

	_, err := c.Complete(context.Background(), chat.Request{
		Model:    "claude-sonnet-4-5",
		Messages: []chat.Message{chat.User("go")},
		Tools: []toolcall.Descriptor{{
			Name:      "lookup",
			Schema:    &toolcall.Schema{Type: toolcall.TypeObject},
			RawSchema: json.RawMessage(`{"type":"object","properties":{"id":{"anyOf":[{"type":"string"},{"type":"integer"}]}},"required":["id"],"additionalProperties":false}`),
		}},
	})
	require.NoError(t, err)

	schema := f.body["tools"].([]any)[0].(map[string]any)["input_schema"]
	want := map[string]any{
		"type": "object",
		"properties": map[string]any{"id": map[string]any{"anyOf": []any{
			map[string]any{"type": "string"},
			map[string]any{"type": "integer"},
		}}},
		"required":             []any{"id"},
		"additionalProperties": false,
	}
	if diff := cmp.Diff(want, schema); diff != "" {
		t.Errorf("input_schema mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteMaxTokens(t *testing.T) {
	c := newClient(t, &fakeMessages{events: maxTokensStream("Once upon a time")})

	resp, err := c.Complete(context.Background(), chat.Request{
		Model:    "claude-sonnet-4-5",
		Messages: []chat.Message{chat.User("Tell me a story")},
	})
	require.NoError(t, err)
	if resp.FinishReason != chat.FinishLength {
		t.Errorf("FinishReason: got = %q, wanted = %q", resp.FinishReason, chat.FinishLength)
	}
	if resp.Message.Content != "Once upon a time" {
		t.Errorf("Content: got = %q, wanted = %q", resp.Message.Content, "Once upon a time")
	}
}

func TestCompleteHTTPError(t *testing.T) {
	hits := 0
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
	}))

	_, err := c.Complete(context.Background(), chat.Request{
		Model:    "claude-sonnet-4-5",
		Messages: []chat.Message{chat.User("hi")},
	})
	if err == nil || !strings.Contains(err.Error(), "529") {
		t.Fatalf("Complete(): got = %v, wanted an error carrying the status", err)
	}
	if hits != 1 {
		t.Errorf("requests: got = %d, wanted = 1 (no retries)", hits)
	}
}

func TestNewOptions(t *testing.T) {
	if _, err := claude.New(""); err == nil {
		t.Error("New(\"\"): got = nil, wanted = error")
	}
	if _, err := claude.New("k", claude.WithMaxTokens(0)); err == nil {
		t.Error("New() with zero max tokens: got = nil, wanted = error")
	}
}
