/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package mcpclient manages a connection to a single MCP tool server.
//
// A server is described by a ServerConfig and reached either by spawning a
// subprocess that speaks MCP over its standard I/O, or over the network
// using the streamable HTTP or SSE transports:
//
//	conn, err := mcpclient.Connect(ctx, mcpclient.ServerConfig{
//		Name:    "github",
//		Command: "mcpagent",
//		Args:    []string{"github-mcp"},
//	})
//	if err != nil { ... }
//	defer conn.Close()
//
//	tools, err := conn.ListTools(ctx)
//	result, err := conn.CallTool(ctx, "get_issue", map[string]any{"issue_number": 1})
//
// Server lists are usually supplied by users as a JSON or YAML mapping of
// name to config; ParseServers decodes them in declaration order.
package mcpclient
