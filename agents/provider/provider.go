/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package provider selects a chat completion backend from a model id.
//
// Models starting with "claude-" use the Anthropic API, models starting with
// "gemini-" use the Gemini API, and every other id (for example
// "anthropic/claude-3.7-sonnet") is routed through OpenRouter.
package provider

import (
	"context"
	"strings"

	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/provider/claude"
	"chainguard.dev/mcpagent/agents/provider/gemini"
	"chainguard.dev/mcpagent/agents/provider/openrouter"
)

// Config holds the credentials for every supported backend. Only the key
// for the selected backend is required.
type Config struct {
	Model            string
	OpenRouterAPIKey string
	AnthropicAPIKey  string
	GeminiAPIKey     string
	// OpenRouterBaseURL overrides the OpenRouter API root.
	OpenRouterBaseURL string
}

// Kind names the backend that serves model.
func Kind(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude-"):
		return "anthropic"
	case strings.HasPrefix(m, "gemini-"):
		return "gemini"
	default:
		return "openrouter"
	}
}

// New returns the completer for cfg.Model.
func New(ctx context.Context, cfg Config) (chat.Completer, error) {
	switch Kind(cfg.Model) {
	case "anthropic":
		return claude.New(cfg.AnthropicAPIKey)
	case "gemini":
		return gemini.New(ctx, cfg.GeminiAPIKey)
	default:
		var opts []openrouter.Option
		if cfg.OpenRouterBaseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(cfg.OpenRouterBaseURL))
		}
		return openrouter.New(cfg.OpenRouterAPIKey, opts...)
	}
}
