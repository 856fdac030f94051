/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace provides tracing infrastructure for agent runs.

# Overview

This package contains the types for tracking a single executor run:

  - ExecutionContext: GitHub run metadata (repository, event, issue number) for trace enrichment
  - Trace: one run from instructions to final assistant reply
  - ToolCall: an individual tool invocation within a trace
  - Tracer: interface for creating and recording traces

Every Trace opens an OpenTelemetry span named "agent.execution" and every
ToolCall a child span named "agent.tool_call". Spans go to the global
tracer provider, so they are dropped unless the host installs an exporter.

# Usage

Set execution context for trace enrichment:

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		Repository: "octo-org/hello-world",
		EventName:  "issues",
		Number:     42,
	})

Create and use traces:

	tracer := agenttrace.ByCode(func(trace *agenttrace.Trace) {
		log.Printf("Trace completed: %s", trace.ID)
	})
	ctx = agenttrace.WithTracer(ctx, tracer)

	trace := agenttrace.StartTrace(ctx, "Fix the failing test")
	call := trace.StartToolCall("call_1", "get_issue", map[string]any{"issue_number": 42})
	call.Complete(`{"title":"Flaky test"}`, nil)
	trace.Complete("Opened a pull request", nil)
*/
package agenttrace
