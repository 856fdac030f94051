/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor drives the tool-calling conversation loop against a chat
// completion endpoint.
//
// Execute sends the input messages together with the tool catalog, appends
// the assistant reply, and then acts on the finish reason:
//   - "tool_calls": each requested call is dispatched in order and answered
//     with a tool message, then the endpoint is asked again.
//   - "length": the truncated reply stays in the conversation and the
//     endpoint is asked to continue.
//   - anything else ends the run.
//
// The tool catalog is read once per Execute, from the locally registered
// tools followed by the supplied ToolSource. Calls to tools that are not in
// the catalog are skipped without a reply. Tool failures, including
// arguments that do not match the tool's schema, are reported back to the
// model as "Error: ..." tool messages flagged IsError so the run can continue.
//
// # Basic Usage
//
//	exec, err := executor.New(completer,
//		executor.WithModel("anthropic/claude-3.7-sonnet"),
//		executor.WithTemperature(0.2),
//	)
//	if err != nil {
//		return err
//	}
//
//	produced, err := exec.Execute(ctx, []chat.Message{
//		chat.System(systemPrompt),
//		chat.User(instructions),
//	}, aggregator)
//
// Execute returns every message it produced, also when it fails, so callers
// can report on partial runs. Endpoint failures are returned as
// *CompletionError.
//
// # Observability
//
// Each Execute starts an agenttrace.Trace using the tracer from the context,
// with a child span per dispatched tool call, and records the
// genai.completion.requests and genai.tool.calls counters.
package executor
