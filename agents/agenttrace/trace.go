/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "chainguard.dev/mcpagent/agents/agenttrace"

func tracer() oteltrace.Tracer {
	return otel.Tracer(instrumentationName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// ToolCall represents a single tool invocation within a trace
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Params    map[string]any `json:"params"`
	Result    any            `json:"result"`
	Error     error          `json:"error,omitempty"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	trace     *Trace         // Parent trace for auto-adding on completion
	mu        sync.Mutex     // Protects mutable fields
	ctx       context.Context
	span      oteltrace.Span
}

// Turn records one completion request within a trace.
type Turn struct {
	FinishReason string `json:"finish_reason"`
	ToolCalls    int    `json:"tool_calls"`
}

// Trace represents a complete agent run from instructions to final reply
type Trace struct {
	ID          string           `json:"id"`
	InputPrompt string           `json:"input_prompt"`
	Model       string           `json:"model,omitempty"`
	ExecContext ExecutionContext `json:"exec_context,omitempty"`
	Turns       []Turn           `json:"turns,omitempty"`
	ToolCalls   []*ToolCall      `json:"tool_calls"`
	Result      string           `json:"result"`
	Error       error            `json:"error,omitempty"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	tracer      Tracer           // Tracer for auto-recording
	mu          sync.Mutex       // Protects mutable fields
	ctx         context.Context
	span        oteltrace.Span
}

// newTraceWithTracer creates a new trace with the given tracer and prompt
func newTraceWithTracer(ctx context.Context, t Tracer, prompt string) *Trace {
	execCtx := GetExecutionContext(ctx)

	attrs := append([]attribute.KeyValue{attribute.String("agent.prompt", prompt)}, execCtx.spanAttributes()...)
	ctx, span := tracer().Start(ctx, "agent.execution", oteltrace.WithAttributes(attrs...))

	return &Trace{
		ID:          generateTraceID(),
		InputPrompt: prompt,
		ExecContext: execCtx,
		ToolCalls:   []*ToolCall{},
		StartTime:   time.Now(),
		Metadata:    make(map[string]any),
		tracer:      t,
		ctx:         ctx,
		span:        span,
	}
}

// Context returns the context carrying the trace span.
func (t *Trace) Context() context.Context {
	return t.ctx
}

// SetModel records the model used for the run.
func (t *Trace) SetModel(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Model = model
	if t.span != nil {
		t.span.SetAttributes(attribute.String("model", model))
	}
}

// RecordTurn records a completion response and how many tool calls it requested.
func (t *Trace) RecordTurn(finishReason string, toolCalls int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Turns = append(t.Turns, Turn{FinishReason: finishReason, ToolCalls: toolCalls})
	if t.span != nil {
		t.span.AddEvent("completion", oteltrace.WithAttributes(
			attribute.Int("turn", len(t.Turns)),
			attribute.String("finish_reason", finishReason),
			attribute.Int("tool_calls", toolCalls),
		))
	}
}

// StartToolCall starts a new tool call and returns it
func (t *Trace) StartToolCall(id, name string, params map[string]any) *ToolCall {
	ctx, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
	))

	return &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: time.Now(),
		trace:     t,
		ctx:       ctx,
		span:      span,
	}
}

// BadToolCall records a tool call that was not dispatched, because the tool
// is unknown or its arguments were rejected.
func (t *Trace) BadToolCall(id, name string, params map[string]any, err error) {
	_, span := tracer().Start(t.ctx, "agent.tool_call", oteltrace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.id", id),
		attribute.String("error", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
	span.End()

	now := time.Now()
	tc := &ToolCall{
		ID:        id,
		Name:      name,
		Params:    params,
		StartTime: now,
		EndTime:   now,
		Error:     err,
		trace:     t,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.ToolCalls = append(t.ToolCalls, tc)
}

// Context returns the context carrying the tool call span.
func (tc *ToolCall) Context() context.Context {
	return tc.ctx
}

// Complete marks the tool call as complete and adds it to the parent trace
func (tc *ToolCall) Complete(result any, err error) {
	tc.mu.Lock()
	tc.Result = result
	tc.Error = err
	tc.EndTime = time.Now()
	trace := tc.trace
	span := tc.span
	tc.mu.Unlock()

	endSpan(span, err)

	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.ToolCalls = append(trace.ToolCalls, tc)
}

// Duration returns the duration of the tool call
func (tc *ToolCall) Duration() time.Duration {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.EndTime.IsZero() {
		return time.Since(tc.StartTime)
	}
	return tc.EndTime.Sub(tc.StartTime)
}

// Complete marks the trace as complete with the given result and automatically records it
func (t *Trace) Complete(result string, err error) {
	t.mu.Lock()
	t.Result = result
	t.Error = err
	t.EndTime = time.Now()
	tr := t.tracer
	span := t.span
	t.mu.Unlock()

	endSpan(span, err)

	tr.RecordTrace(t)
}

func endSpan(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Duration returns the total duration of the trace
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// String returns a structured representation of the trace
func (t *Trace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder

	var duration time.Duration
	if t.EndTime.IsZero() {
		duration = time.Since(t.StartTime)
	} else {
		duration = t.EndTime.Sub(t.StartTime)
	}

	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Prompt: %q\n", truncate(t.InputPrompt, 200))
	if t.Model != "" {
		fmt.Fprintf(&sb, "Model: %s\n", t.Model)
	}
	fmt.Fprintf(&sb, "Duration: %v\n", duration)

	if len(t.Turns) > 0 {
		fmt.Fprintf(&sb, "\nTurns (%d):\n", len(t.Turns))
		for i, turn := range t.Turns {
			fmt.Fprintf(&sb, "  [%d] finish_reason=%s tool_calls=%d\n", i+1, turn.FinishReason, turn.ToolCalls)
		}
	}

	if len(t.ToolCalls) > 0 {
		fmt.Fprintf(&sb, "\nTool Calls (%d):\n", len(t.ToolCalls))
		for i, tc := range t.ToolCalls {
			fmt.Fprintf(&sb, "  [%d] %s (ID: %s)\n", i+1, tc.Name, tc.ID)

			// Computed inline; tc.Duration would take the tool call lock.
			tcDuration := tc.EndTime.Sub(tc.StartTime)
			if tc.EndTime.IsZero() {
				tcDuration = time.Since(tc.StartTime)
			}
			fmt.Fprintf(&sb, "      Duration: %v\n", tcDuration)

			if len(tc.Params) > 0 {
				fmt.Fprintf(&sb, "      Params: %s\n", truncate(fmt.Sprintf("%v", tc.Params), 200))
			}
			switch {
			case tc.Error != nil:
				fmt.Fprintf(&sb, "      Error: %v\n", tc.Error)
			case tc.Result != nil:
				fmt.Fprintf(&sb, "      Result: %s\n", truncate(fmt.Sprintf("%v", tc.Result), 200))
			}
		}
	} else {
		sb.WriteString("\nNo tool calls\n")
	}

	sb.WriteString("\nCompletion:\n")
	switch {
	case t.Error != nil:
		fmt.Fprintf(&sb, "  Error: %v\n", t.Error)
	case t.Result != "":
		fmt.Fprintf(&sb, "  Result: %s\n", truncate(t.Result, 500))
	default:
		sb.WriteString("  Result: <empty>\n")
	}

	if len(t.Metadata) > 0 {
		sb.WriteString("\nMetadata:\n")
		for k, v := range t.Metadata {
			fmt.Fprintf(&sb, "  %s: %v\n", k, v)
		}
	}

	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// generateTraceID generates a unique trace ID
func generateTraceID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// Fallback to timestamp only if random generation fails
		return time.Now().Format("20060102-150405.000000")
	}
	// Format: YYYYMMDD-HHMMSS-RRRRRRRR where R is random hex
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), hex.EncodeToString(b))
}
