/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package gemini implements chat.Completer with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"chainguard.dev/mcpagent/agents/chat"
	"google.golang.org/genai"
)

// Client sends completions to Gemini.
type Client struct {
	client *genai.Client
	// calls numbers tool calls the API returns without an ID.
	calls atomic.Int64
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

// New creates a Gemini API client.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key (set GEMINI_API_KEY)")
	}
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  o.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: o.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

var _ chat.Completer = (*Client)(nil)

// Complete implements chat.Completer.
func (c *Client) Complete(ctx context.Context, req chat.Request) (*chat.Response, error) {
	system, contents := toContents(req.Messages)

	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, d := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 d.Name,
				Description:          d.Description,
				ParametersJsonSchema: d.Parameters(),
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}

		mode := map[string]genai.FunctionCallingConfigMode{
			"auto":     genai.FunctionCallingConfigModeAuto,
			"required": genai.FunctionCallingConfigModeAny,
			"none":     genai.FunctionCallingConfigModeNone,
		}[req.ToolChoice]
		if mode != "" {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode},
			}
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API error: %w", err)
	}
	return c.fromResponse(resp)
}

func (c *Client) fromResponse(resp *genai.GenerateContentResponse) (*chat.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("Gemini response has no candidates")
	}
	cand := resp.Candidates[0]

	out := chat.Message{Role: chat.RoleAssistant}
	var text []string
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			switch {
			case p.Thought:
			case p.FunctionCall != nil:
				args, err := json.Marshal(p.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("encoding arguments of %q: %w", p.FunctionCall.Name, err)
				}
				id := p.FunctionCall.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", c.calls.Add(1))
				}
				out.ToolCalls = append(out.ToolCalls, chat.ToolCall{
					ID:        id,
					Name:      p.FunctionCall.Name,
					Arguments: string(args),
					Signature: p.ThoughtSignature,
				})
			case p.Text != "":
				text = append(text, p.Text)
			}
		}
	}
	out.Content = strings.Join(text, "")

	finish := chat.FinishStop
	switch {
	case len(out.ToolCalls) > 0:
		finish = chat.FinishToolCalls
	case cand.FinishReason == genai.FinishReasonMaxTokens:
		finish = chat.FinishLength
	}
	return &chat.Response{Message: out, FinishReason: finish}, nil
}

// toContents converts msgs to Gemini contents. Function calls keep their
// thought signatures, and calls the loop skipped get a failed response.
func toContents(msgs []chat.Message) (*genai.Content, []*genai.Content) {
	msgs = chat.AnswerSkipped(msgs)
	var (
		system  *genai.Content
		out     []*genai.Content
		results []*genai.Part
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, genai.NewContentFromParts(results, genai.RoleUser))
			results = nil
		}
	}

	for _, m := range msgs {
		if m.Role == chat.RoleTool {
			key := "output"
			if m.IsError {
				key = "error"
			}
			results = append(results, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: map[string]any{key: m.Content},
			}})
			continue
		}
		flush()

		switch m.Role {
		case chat.RoleSystem:
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, genai.NewPartFromText(m.Content))
		case chat.RoleUser:
			out = append(out, genai.NewContentFromText(m.Content, genai.RoleUser))
		case chat.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = nil
				}
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: args,
					},
					ThoughtSignature: tc.Signature,
				})
			}
			if len(parts) > 0 {
				out = append(out, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		}
	}
	flush()
	return system, out
}
