/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package openrouter implements chat.Completer against the OpenRouter
// OpenAI-compatible chat completions API.
package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"chainguard.dev/mcpagent/agents/chat"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Client sends completions to OpenRouter.
type Client struct {
	client openai.Client
}

type options struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures New.
type Option func(*options) error

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

// New creates an OpenRouter client. Failed requests are not retried.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("missing OpenRouter API key (set OPENROUTER_API_KEY)")
	}
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	reqOpts := []option.RequestOption{
		option.WithBaseURL(o.baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHeader("X-Title", "mcpagent"),
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	return &Client{client: openai.NewClient(reqOpts...)}, nil
}

var _ chat.Completer = (*Client)(nil)

// Complete implements chat.Completer.
func (c *Client) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: toParams(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(req.ToolChoice)}
	}
	for _, d := range req.Tools {
		fn := shared.FunctionDefinitionParam{
			Name:       d.Name,
			Parameters: shared.FunctionParameters(d.Parameters()),
		}
		if d.Description != "" {
			fn.Description = openai.String(d.Description)
		}
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{Function: fn})
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("OpenRouter API error: %w", err)
	}
	return fromCompletion(completion)
}

// envelope holds the response fields OpenRouter adds to the OpenAI schema.
type envelope struct {
	Error   json.RawMessage `json:"error"`
	Choices []struct {
		FinishDetails struct {
			Type string `json:"type"`
		} `json:"finish_details"`
	} `json:"choices"`
}

func fromCompletion(completion *openai.ChatCompletion) (*chat.Response, error) {
	var env envelope
	if raw := completion.RawJSON(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("decoding OpenRouter response: %w", err)
		}
	}
	// OpenRouter reports some upstream failures with a 200 status.
	if len(env.Error) > 0 && string(env.Error) != "null" {
		return nil, fmt.Errorf("OpenRouter API error: %s", env.Error)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("OpenRouter response has no choices")
	}

	choice := completion.Choices[0]
	finish := choice.FinishReason
	if finish == "" && len(env.Choices) > 0 {
		finish = env.Choices[0].FinishDetails.Type
	}

	msg := chat.Message{
		Role:    chat.RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, chat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return &chat.Response{Message: msg, FinishReason: chat.FinishReason(finish)}, nil
}

// toParams converts msgs to OpenAI chat messages. Each tool call must be
// followed by a tool message, so calls the loop skipped get a failed result.
func toParams(msgs []chat.Message) []openai.ChatCompletionMessageParamUnion {
	msgs = chat.AnswerSkipped(msgs)
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case chat.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case chat.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case chat.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case chat.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			am := &openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				am.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Content)}
			}
			for _, tc := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: am})
		}
	}
	return out
}
