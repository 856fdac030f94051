/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	_ "embed"
	"fmt"

	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/promptbuilder"
)

// DefaultSystemPrompt is used when no system prompt is configured.
//
//go:embed system_prompt.md
var DefaultSystemPrompt string

// Messages builds the opening conversation: the system prompt followed by
// the instructions rendered against the event payload.
func Messages(cfg Config, ev *Event) ([]chat.Message, error) {
	system := DefaultSystemPrompt
	if cfg.SystemPrompt != "" {
		s, err := LoadText(cfg.SystemPrompt)
		if err != nil {
			return nil, fmt.Errorf("loading system prompt: %w", err)
		}
		system = s
	}

	tmpl, err := LoadText(cfg.Instructions)
	if err != nil {
		return nil, fmt.Errorf("loading instructions: %w", err)
	}
	var payload map[string]any
	if ev != nil {
		payload = ev.Payload
	}
	instructions, err := promptbuilder.Render(tmpl, payload)
	if err != nil {
		return nil, fmt.Errorf("rendering instructions: %w", err)
	}

	return []chat.Message{chat.System(system), chat.User(instructions)}, nil
}
