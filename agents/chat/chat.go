/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package chat

import (
	"context"

	"chainguard.dev/mcpagent/agents/toolcall"
)

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FinishReason is the normalised reason a completion stopped generating.
type FinishReason string

const (
	// FinishStop is a normal end of turn.
	FinishStop FinishReason = "stop"
	// FinishLength means the response was truncated and should be continued.
	FinishLength FinishReason = "length"
	// FinishToolCalls means the assistant is waiting on tool results.
	FinishToolCalls FinishReason = "tool_calls"
)

// ToolCall is a request from the model to invoke a named tool.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Arguments is the raw JSON payload produced by the endpoint.
	Arguments string `json:"arguments,omitempty"`
	// Signature is an opaque token some endpoints attach to a call and
	// require back, unchanged, when the conversation is replayed.
	Signature []byte `json:"signature,omitempty"`
}

// Message is a single entry in a conversation.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool message to the request that produced it.
	ToolCallID string `json:"tool_call_id,omitempty"`
	// Name is the tool name on tool messages.
	Name string `json:"name,omitempty"`
	// IsError marks a tool message that reports a failed or rejected call.
	IsError bool `json:"is_error,omitempty"`
}

// System returns a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant message with optional tool call requests.
func Assistant(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolResult returns the tool message answering the given call.
func ToolResult(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		Name:       call.Name,
	}
}

// ToolFailure returns the tool message reporting that the given call failed.
func ToolFailure(call ToolCall, content string) Message {
	m := ToolResult(call, content)
	m.IsError = true
	return m
}

// SkippedResult is the content sent to endpoints for a tool call that was
// never executed.
const SkippedResult = "Error: tool call was not executed"

// AnswerSkipped returns msgs with a failed tool message added for every
// assistant tool call that has no answer. Endpoints that insist on one reply
// per call are sent this view; msgs itself is not modified.
func AnswerSkipped(msgs []Message) []Message {
	answered := make(map[string]bool)
	for _, m := range msgs {
		if m.Role == RoleTool {
			answered[m.ToolCallID] = true
		}
	}

	out := make([]Message, 0, len(msgs))
	var pending []ToolCall
	flush := func() {
		for _, call := range pending {
			out = append(out, ToolFailure(call, SkippedResult))
		}
		pending = nil
	}
	for _, m := range msgs {
		if m.Role != RoleTool {
			flush()
		}
		out = append(out, m)
		if m.Role == RoleAssistant {
			for _, call := range m.ToolCalls {
				if !answered[call.ID] {
					pending = append(pending, call)
				}
			}
		}
	}
	flush()
	return out
}

// Request is a single chat completion request.
type Request struct {
	Model       string                `json:"model"`
	Messages    []Message             `json:"messages"`
	Tools       []toolcall.Descriptor `json:"tools,omitempty"`
	Temperature *float64              `json:"temperature,omitempty"`
	ToolChoice  string                `json:"tool_choice,omitempty"`
}

// Response is the first choice of a chat completion.
type Response struct {
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
}

// Completer sends a request to a chat completion endpoint.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// LastReply returns the content of the last assistant message with text, or
// "" if there is none.
func LastReply(msgs []Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant && msgs[i].Content != "" {
			return msgs[i].Content
		}
	}
	return ""
}
