/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package chat defines the provider-independent conversation model shared by
// the executor and the completion providers.
//
// A conversation is an append-only sequence of Message values. Assistant
// messages may carry ToolCall requests; each request is answered by a tool
// message whose ToolCallID matches the request ID:
//
//	msgs := []chat.Message{
//		chat.System("You are a helpful assistant."),
//		chat.User("Say hello"),
//	}
//
// Providers implement Completer and normalise their native stop signals into
// the FinishReason constants defined here.
package chat
