/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/mcpagent/agents/agenttrace"
	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/metrics"
	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/chainguard-dev/clog"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "anthropic/claude-3.7-sonnet"

// ToolSource supplies tools that live outside the process.
// *multiclient.MultiClient satisfies it.
type ToolSource interface {
	ListTools(ctx context.Context) ([]toolcall.Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// Executor runs the completion loop. It holds no per-run state and may be
// reused.
type Executor struct {
	completer    chat.Completer
	model        string
	temperature  *float64
	toolChoice   string
	tools        []toolcall.Tool
	maxTurns     int
	genaiMetrics *metrics.GenAI
}

// New creates a new Executor with minimal required configuration
func New(completer chat.Completer, opts ...Option) (*Executor, error) {
	if completer == nil {
		return nil, errors.New("completer cannot be nil")
	}

	e := &Executor{
		completer:    completer,
		model:        DefaultModel,
		genaiMetrics: metrics.NewGenAI("chainguard.dev/mcpagent"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Model returns the configured model identifier.
func (e *Executor) Model() string {
	return e.model
}

// Execute runs the conversation to completion and returns the messages it
// produced, in order. On failure the messages produced so far are returned
// along with the error. tools may be nil.
func (e *Executor) Execute(ctx context.Context, input []chat.Message, tools ToolSource) (produced []chat.Message, err error) {
	log := clog.FromContext(ctx).With("model", e.model)

	trace := agenttrace.StartTrace(ctx, lastUserContent(input))
	trace.SetModel(e.model)
	defer func() {
		trace.Complete(chat.LastReply(produced), err)
	}()
	ctx = trace.Context()

	descriptors, handlers, err := e.catalog(ctx, tools)
	if err != nil {
		return nil, err
	}
	log.With("tools", len(descriptors)).Info("Starting agent execution")

	for turn := 1; ; turn++ {
		if e.maxTurns > 0 && turn > e.maxTurns {
			return produced, fmt.Errorf("%w: limit is %d", ErrMaxTurns, e.maxTurns)
		}

		req := chat.Request{
			Model:       e.model,
			Messages:    append(append(make([]chat.Message, 0, len(input)+len(produced)), input...), produced...),
			Tools:       descriptors,
			Temperature: e.temperature,
			ToolChoice:  e.toolChoice,
		}

		resp, err := e.completer.Complete(ctx, req)
		if err == nil && resp == nil {
			err = errors.New("endpoint returned no response")
		}
		if err != nil {
			payload, merr := json.Marshal(req.Messages)
			if merr != nil {
				payload = nil
			}
			log.With("turn", turn).
				With("error", err.Error()).
				Error("Completion request failed")
			return produced, &CompletionError{Model: e.model, Messages: payload, Err: err}
		}

		msg := resp.Message
		msg.Role = chat.RoleAssistant
		produced = append(produced, msg)

		e.genaiMetrics.RecordCompletion(ctx, e.model, string(resp.FinishReason))
		trace.RecordTurn(string(resp.FinishReason), len(msg.ToolCalls))
		log.With("turn", turn).
			With("finish_reason", resp.FinishReason).
			With("tool_calls", len(msg.ToolCalls)).
			Debug("Received completion")

		switch resp.FinishReason {
		case chat.FinishToolCalls:
			for _, call := range msg.ToolCalls {
				if reply, ok := e.dispatch(ctx, trace, handlers, call); ok {
					produced = append(produced, reply)
				}
			}
		case chat.FinishLength:
			log.With("turn", turn).Info("Response truncated, requesting continuation")
		default:
			log.With("turns", turn).
				With("messages", len(produced)).
				Info("Agent execution completed")
			return produced, nil
		}
	}
}

// catalog snapshots the tools for one run. Local tools come first and the
// first registration of a name wins.
func (e *Executor) catalog(ctx context.Context, source ToolSource) ([]toolcall.Descriptor, map[string]toolcall.Tool, error) {
	var descriptors []toolcall.Descriptor
	handlers := make(map[string]toolcall.Tool, len(e.tools))

	add := func(t toolcall.Tool) {
		if _, dup := handlers[t.Name]; dup {
			clog.FromContext(ctx).With("tool", t.Name).Debug("Ignoring duplicate tool registration")
			return
		}
		handlers[t.Name] = t
		descriptors = append(descriptors, t.Descriptor)
	}

	for _, t := range e.tools {
		add(t)
	}

	if source != nil {
		listed, err := source.ListTools(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("listing tools: %w", err)
		}
		for _, d := range listed {
			name := d.Name
			add(toolcall.Tool{
				Descriptor: d,
				Handler: func(ctx context.Context, args map[string]any) (any, error) {
					return source.CallTool(ctx, name, args)
				},
			})
		}
	}
	return descriptors, handlers, nil
}

// dispatch runs one tool call. It reports false when the tool is unknown, in
// which case no reply is added to the conversation.
func (e *Executor) dispatch(ctx context.Context, trace *agenttrace.Trace, handlers map[string]toolcall.Tool, call chat.ToolCall) (chat.Message, bool) {
	log := clog.FromContext(ctx).With("tool", call.Name).With("id", call.ID)

	tool, ok := handlers[call.Name]
	if !ok {
		log.Warn("Skipping call to unknown tool")
		trace.BadToolCall(call.ID, call.Name, map[string]any{"arguments": call.Arguments},
			fmt.Errorf("unknown tool: %q", call.Name))
		return chat.Message{}, false
	}

	args, err := parseArguments(call.Arguments)
	if err == nil {
		err = tool.Schema.Validate(args)
		if err != nil {
			err = fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if err != nil {
		log.With("error", err.Error()).Warn("Rejected tool call")
		trace.BadToolCall(call.ID, call.Name, args, err)
		e.genaiMetrics.RecordToolCall(ctx, e.model, call.Name, true)
		return chat.ToolFailure(call, "Error: "+err.Error()), true
	}

	log.Info("Executing tool call")
	tc := trace.StartToolCall(call.ID, call.Name, args)
	result, err := tool.Handler(tc.Context(), args)
	tc.Complete(result, err)
	e.genaiMetrics.RecordToolCall(ctx, e.model, call.Name, err != nil)

	if err != nil {
		log.With("error", err.Error()).Error("Tool call failed")
		return chat.ToolFailure(call, "Error: "+err.Error()), true
	}
	return chat.ToolResult(call, toolcall.FormatResult(result)), true
}

// parseArguments decodes a tool call payload. An empty payload is an empty
// argument set.
func parseArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func lastUserContent(msgs []chat.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == chat.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
