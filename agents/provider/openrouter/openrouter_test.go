/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package openrouter_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/provider/openrouter"
	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint records the last request body and answers with a fixed reply.
type fakeEndpoint struct {
	status int
	reply  string

	auth string
	body map[string]any
	hits int
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits++
	f.auth = r.Header.Get("Authorization")
	b, _ := io.ReadAll(r.Body)
	f.body = nil
	_ = json.Unmarshal(b, &f.body)

	if r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
	}
	_, _ = io.WriteString(w, f.reply)
}

func newClient(t *testing.T, f *fakeEndpoint) *openrouter.Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := openrouter.New("sk-or-test", openrouter.WithBaseURL(srv.URL), openrouter.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

const toolCallReply = `{
	"id": "gen-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "anthropic/claude-3.7-sonnet",
	"choices": [{
		"index": 0,
		"finish_reason": "tool_calls",
		"message": {
			"role": "assistant",
			"content": "Let me look.",
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "get_issue", "arguments": "{\"number\":12}"}
			}]
		}
	}]
}`

func TestComplete(t *testing.T) {
	f := &fakeEndpoint{reply: toolCallReply}
	c := newClient(t, f)

	temp := 0.2
	call := chat.ToolCall{ID: "call_0", Name: "ping", Arguments: "{}"}
	resp, err := c.Complete(context.Background(), chat.Request{
		Model: "anthropic/claude-3.7-sonnet",
		Messages: []chat.Message{
			chat.System("be brief"),
			chat.User("Look at issue 12"),
			chat.Assistant("", call),
			chat.ToolResult(call, "OK"),
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

	requested := chat.ToolCall{ID: "call_1", Name: "get_issue", Arguments: `{"number":12}`}
	want := &chat.Response{
		Message:      chat.Assistant("Let me look.", requested),
		FinishReason: chat.FinishToolCalls,
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("Complete() mismatch (-want +got):\n%s", diff)
	}

	if f.auth != "Bearer sk-or-test" {
		t.Errorf("Authorization: got = %q, wanted = %q", f.auth, "Bearer sk-or-test")
	}
	if got := f.body["model"]; got != "anthropic/claude-3.7-sonnet" {
		t.Errorf("model: got = %v, wanted = anthropic/claude-3.7-sonnet", got)
	}
	if got := f.body["tool_choice"]; got != "auto" {
		t.Errorf("tool_choice: got = %v, wanted = auto", got)
	}
	if got := f.body["temperature"]; got != 0.2 {
		t.Errorf("temperature: got = %v, wanted = 0.2", got)
	}

	msgs, _ := f.body["messages"].([]any)
	var roles []string
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	if diff := cmp.Diff([]string{"system", "user", "assistant", "tool"}, roles); diff != "" {
		t.Errorf("message roles mismatch (-want +got):\n%s", diff)
	}
	if got := msgs[3].(map[string]any)["tool_call_id"]; got != "call_0" {
		t.Errorf("tool_call_id: got = %v, wanted = call_0", got)
	}

	tools, _ := f.body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools: got = %d, wanted = 1", len(tools))
	}
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	wantParams := map[string]any{
		"type":       "object",
		"properties": map[string]any{"number": map[string]any{"type": "integer"}},
		"required":   []any{"number"},
	}
	if diff := cmp.Diff(wantParams, fn["parameters"]); diff != "" {
		t.Errorf("tool parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestCompleteAnswersSkippedCalls(t *testing.T) {
	f := &fakeEndpoint{reply: toolCallReply}
	c := newClient(t, f)

	skipped := chat.ToolCall{ID: "call_0", Name: "missing_tool", Arguments: "{}"}
	_, err := c.Complete(context.Background(), chat.Request{
		Model: "anthropic/claude-3.7-sonnet",
		Messages: []chat.Message{
			chat.User("go"),
			chat.Assistant("", skipped),
			chat.Assistant("continuing"),
		},
	})
	require.NoError(t, err)

	msgs, _ := f.body["messages"].([]any)
	var roles []string
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	if diff := cmp.Diff([]string{"user", "assistant", "tool", "assistant"}, roles); diff != "" {
		t.Fatalf("message roles mismatch (-want +got):\n%s", diff)
	}
	tool := msgs[2].(map[string]any)
	if tool["tool_call_id"] != "call_0" || tool["content"] != chat.SkippedResult {
		t.Errorf("skipped call answer: got = %v, wanted a %q reply to call_0", tool, chat.SkippedResult)
	}
}

func TestCompleteFinishDetails(t *testing.T) {
	f := &fakeEndpoint{reply: `{
		"id": "gen-2",
		"choices": [{
			"index": 0,
			"finish_reason": null,
			"finish_details": {"type": "stop"},
			"message": {"role": "assistant", "content": "Hi"}
		}]
	}`}

	resp, err := newClient(t, f).Complete(context.Background(), chat.Request{
		Model:    "x/y",
		Messages: []chat.Message{chat.User("hello")},
	})
	require.NoError(t, err)
	if resp.FinishReason != chat.FinishStop {
		t.Errorf("FinishReason: got = %q, wanted = %q", resp.FinishReason, chat.FinishStop)
	}
	if _, ok := f.body["tools"]; ok {
		t.Errorf("request carried tools without any being offered: %v", f.body["tools"])
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		wantErr string
	}{{
		name:    "error payload with 200",
		reply:   `{"error": {"code": 502, "message": "upstream overloaded"}}`,
		wantErr: "upstream overloaded",
	}, {
		name:    "http error",
		status:  http.StatusUnauthorized,
		reply:   `{"error": {"message": "invalid key", "code": 401}}`,
		wantErr: "401",
	}, {
		name:    "no choices",
		reply:   `{"id": "gen-3", "choices": []}`,
		wantErr: "no choices",
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeEndpoint{status: tt.status, reply: tt.reply}
			_, err := newClient(t, f).Complete(context.Background(), chat.Request{
				Model:    "x/y",
				Messages: []chat.Message{chat.User("hello")},
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Complete(): got = %v, wanted error containing %q", err, tt.wantErr)
			}
			if f.hits != 1 {
				t.Errorf("requests: got = %d, wanted = 1 (no retries)", f.hits)
			}
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := openrouter.New(""); err == nil {
		t.Error("New(\"\"): got = nil, wanted = error")
	}
}
