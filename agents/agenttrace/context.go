/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext describes the GitHub event an agent run was triggered by.
type ExecutionContext struct {
	Repository string `json:"repository,omitempty"` // "owner/name"
	EventName  string `json:"event_name,omitempty"` // e.g. "issues", "pull_request"
	Number     int    `json:"number,omitempty"`     // issue or pull request number, 0 when unknown
	RunID      string `json:"run_id,omitempty"`     // workflow run id (optional)
}

// spanAttributes returns every populated field as span attributes.
func (e ExecutionContext) spanAttributes() []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if e.Repository != "" {
		attrs = append(attrs, attribute.String("repository", e.Repository))
	}
	if e.EventName != "" {
		attrs = append(attrs, attribute.String("event_name", e.EventName))
	}
	if e.Number != 0 {
		attrs = append(attrs, attribute.Int("number", e.Number))
	}
	if e.RunID != "" {
		attrs = append(attrs, attribute.String("run_id", e.RunID))
	}
	return attrs
}

// EnrichAttributes adds execution context attributes to the provided base attributes.
//
// Only bounded labels are added: the issue number and run id would create a
// new time series per run, so they are left to traces.
func (e ExecutionContext) EnrichAttributes(baseAttrs []attribute.KeyValue) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(baseAttrs), len(baseAttrs)+2)
	copy(attrs, baseAttrs)

	if e.Repository != "" {
		attrs = append(attrs, attribute.String("repository", e.Repository))
	}
	if e.EventName != "" {
		attrs = append(attrs, attribute.String("event_name", e.EventName))
	}
	return attrs
}

// contextKey is used for storing execution context in context.Context
type contextKey string

const executionContextKey contextKey = "execution_context"

// WithExecutionContext adds execution context to the Go context
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if val := ctx.Value(executionContextKey); val != nil {
		if execCtx, ok := val.(ExecutionContext); ok {
			return execCtx
		}
	}
	return ExecutionContext{}
}
