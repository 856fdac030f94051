/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"errors"
	"fmt"

	"chainguard.dev/mcpagent/agents/metrics"
	"chainguard.dev/mcpagent/agents/toolcall"
)

// Option is a functional option for configuring the executor
type Option func(*Executor) error

// WithModel sets the model identifier sent with every request
func WithModel(model string) Option {
	return func(e *Executor) error {
		if model == "" {
			return errors.New("model cannot be empty")
		}
		e.model = model
		return nil
	}
}

// WithTemperature sets the sampling temperature.
// OpenAI-compatible endpoints accept values from 0.0 to 2.0.
func WithTemperature(temp float64) Option {
	return func(e *Executor) error {
		if temp < 0.0 || temp > 2.0 {
			return fmt.Errorf("temperature must be between 0.0 and 2.0, got %f", temp)
		}
		e.temperature = &temp
		return nil
	}
}

// WithToolChoice sets the tool_choice sent with every request ("auto",
// "none", "required").
func WithToolChoice(choice string) Option {
	return func(e *Executor) error {
		switch choice {
		case "auto", "none", "required":
			e.toolChoice = choice
			return nil
		default:
			return fmt.Errorf("unsupported tool choice %q", choice)
		}
	}
}

// WithTools registers tools implemented in-process. They are offered before
// any tool from the ToolSource and win on a name clash.
func WithTools(tools ...toolcall.Tool) Option {
	return func(e *Executor) error {
		for _, t := range tools {
			if t.Name == "" {
				return errors.New("tool name cannot be empty")
			}
			if t.Handler == nil {
				return fmt.Errorf("tool %q has no handler", t.Name)
			}
		}
		e.tools = append(e.tools, tools...)
		return nil
	}
}

// WithMaxTurns limits the number of completion requests in one run.
// Zero means no limit.
func WithMaxTurns(n int) Option {
	return func(e *Executor) error {
		if n < 0 {
			return fmt.Errorf("max turns cannot be negative, got %d", n)
		}
		e.maxTurns = n
		return nil
	}
}

// WithAttributeEnricher sets a custom attribute enricher for metrics.
// The enricher is called before recording each metric, allowing the application
// to add contextual attributes (e.g., repository, event name).
// If not provided, metrics will only include base attributes (model, tool).
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(e *Executor) error {
		e.genaiMetrics.SetAttributeEnricher(enricher)
		return nil
	}
}
