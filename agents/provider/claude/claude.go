/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package claude implements chat.Completer with the Anthropic Messages API.
//
// System messages are sent as the request's system prompt and consecutive
// tool results are folded into a single user turn, as the Messages API
// requires. Responses are streamed and accumulated into one message.
package claude

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chainguard.dev/mcpagent/agents/chat"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client sends completions to Anthropic.
type Client struct {
	client    anthropic.Client
	maxTokens int64
}

type options struct {
	maxTokens  int64
	baseURL    string
	httpClient *http.Client
}

// Option configures New.
type Option func(*options) error

// WithMaxTokens sets the maximum tokens for responses
func WithMaxTokens(tokens int64) Option {
	return func(o *options) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		if tokens > 64000 {
			return fmt.Errorf("max tokens %d exceeds maximum of 64000", tokens)
		}
		o.maxTokens = tokens
		return nil
	}
}

// WithBaseURL overrides the API root.
func WithBaseURL(u string) Option {
	return func(o *options) error {
		if u == "" {
			return errors.New("base URL cannot be empty")
		}
		o.baseURL = u
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		o.httpClient = c
		return nil
	}
}

// New creates an Anthropic client. Failed requests are not retried.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("missing Anthropic API key (set ANTHROPIC_API_KEY)")
	}
	o := options{maxTokens: 8192}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	return &Client{
		client:    anthropic.NewClient(reqOpts...),
		maxTokens: o.maxTokens,
	}, nil
}

var _ chat.Completer = (*Client)(nil)

// Complete implements chat.Completer.
func (c *Client) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: c.maxTokens,
	}
	params.System, params.Messages = toParams(req.Messages)

	if req.Temperature != nil {
		// Claude accepts 0.0 to 1.0.
		params.Temperature = anthropic.Float(min(*req.Temperature, 1.0))
	}

	for _, d := range req.Tools {
		tool := &anthropic.ToolParam{
			Name:        d.Name,
			InputSchema: inputSchema(d.Parameters()),
		}
		if d.Description != "" {
			tool.Description = anthropic.String(d.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: tool})
	}

	if len(params.Tools) > 0 {
		switch req.ToolChoice {
		case "auto":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
		case "required":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		case "none":
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	var msg anthropic.Message
	for stream.Next() {
		if err := msg.Accumulate(stream.Current()); err != nil {
			return nil, fmt.Errorf("failed to accumulate event: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("Anthropic API error: %w", err)
	}
	return fromMessage(msg), nil
}

func fromMessage(msg anthropic.Message) *chat.Response {
	out := chat.Message{Role: chat.RoleAssistant}
	var text []string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	out.Content = strings.Join(text, "")

	finish := chat.FinishStop
	switch msg.StopReason {
	case anthropic.StopReasonToolUse:
		finish = chat.FinishToolCalls
	case anthropic.StopReasonMaxTokens:
		finish = chat.FinishLength
	}
	return &chat.Response{Message: out, FinishReason: finish}
}

// toParams converts msgs to the Messages API shape. Every tool_use block must
// be answered in the next turn, so calls the loop skipped get a failed result.
func toParams(msgs []chat.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	msgs = chat.AnswerSkipped(msgs)
	var (
		system  []anthropic.TextBlockParam
		out     []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range msgs {
		if m.Role == chat.RoleTool {
			results = append(results, anthropic.NewToolResultBlock(m.ToolCallID, m.Content, m.IsError))
			continue
		}
		flush()

		switch m.Role {
		case chat.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case chat.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case chat.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			// Empty text blocks are rejected by the API.
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		}
	}
	flush()
	return system, out
}

// inputSchema splits an object schema into the fields the SDK models and
// passes the rest through untouched.
func inputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	p := anthropic.ToolInputSchemaParam{Properties: map[string]any{}}
	for k, v := range schema {
		switch k {
		case "type":
		case "properties":
			if v != nil {
				p.Properties = v
			}
		case "required":
			switch r := v.(type) {
			case []string:
				p.Required = r
			case []any:
				for _, name := range r {
					if s, ok := name.(string); ok {
						p.Required = append(p.Required, s)
					}
				}
			}
		default:
			if p.ExtraFields == nil {
				p.ExtraFields = map[string]any{}
			}
			p.ExtraFields[k] = v
		}
	}
	return p
}

// toolInput returns the call arguments as a JSON object.
func toolInput(args string) json.RawMessage {
	if strings.TrimSpace(args) == "" || !json.Valid([]byte(args)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(args)
}
