/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics provides OpenTelemetry counters for agent runs.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// GenAI provides OpenTelemetry metrics for the completion loop.
// It counts completion requests and tool calls, degrading to no-op counters
// if metric creation fails.
type GenAI struct {
	meter           metric.Meter
	completions     metric.Int64Counter
	toolCallCounter metric.Int64Counter
	attrEnricher    AttributeEnricher
}

// NewGenAI creates a new GenAI metrics instance with the specified meter name.
//
// The meterName should be shared by every executor (e.g. "chainguard.dev/mcpagent")
// with the model name serving as a dimension on the recorded metrics.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	return &GenAI{
		meter: meter,
		completions: counter(meter, meterName, "genai.completion.requests",
			"The number of chat completion requests made during execution", "{requests}"),
		toolCallCounter: counter(meter, meterName, "genai.tool.calls",
			"The number of tool calls made during execution", "{calls}"),
	}
}

func counter(meter metric.Meter, meterName, name, description, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		slog.Warn("Failed to create counter, metric will be disabled", "error", err, "meter", meterName, "counter", name)
		return noop.Int64Counter{}
	}
	return c
}

// SetAttributeEnricher sets the attribute enricher for this metrics instance.
// The enricher is called before recording each metric to add contextual attributes
// (e.g. repository, event name).
func (m *GenAI) SetAttributeEnricher(enricher AttributeEnricher) {
	m.attrEnricher = enricher
}

func (m *GenAI) attributes(ctx context.Context, base []attribute.KeyValue, extra []attribute.KeyValue) []attribute.KeyValue {
	if m.attrEnricher != nil {
		base = m.attrEnricher(ctx, base)
	}
	return append(base, extra...)
}

// RecordCompletion records a completion response and its finish reason.
func (m *GenAI) RecordCompletion(ctx context.Context, model, finishReason string, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("finish_reason", finishReason),
	}, attrs)
	m.completions.Add(ctx, 1, metric.WithAttributes(all...))
}

// RecordToolCall records a tool invocation and whether it succeeded.
func (m *GenAI) RecordToolCall(ctx context.Context, model, toolName string, failed bool, attrs ...attribute.KeyValue) {
	all := m.attributes(ctx, []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("tool", toolName),
		attribute.Bool("error", failed),
	}, attrs)
	m.toolCallCounter.Add(ctx, 1, metric.WithAttributes(all...))
}
