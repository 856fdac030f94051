/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package toolserver builds MCP tool servers out of typed Go handlers.
package toolserver

import (
	"context"
	"fmt"
	"io"
	"log"

	"chainguard.dev/mcpagent/agents/schema"
	"chainguard.dev/mcpagent/agents/toolcall/params"
	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration adds one tool to a server.
type Registration func(*server.MCPServer) error

// Tool returns a registration for a tool whose input schema is reflected
// from A. Arguments are decoded into A; a handler error becomes an MCP error
// result and a value becomes a JSON result.
func Tool[A any, R any](name, description string, fn func(context.Context, A) (R, error)) Registration {
	return func(s *server.MCPServer) error {
		raw, err := schema.Raw[A]()
		if err != nil {
			return fmt.Errorf("tool %q: %w", name, err)
		}
		s.AddTool(mcp.NewToolWithRawSchema(name, description, raw), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			log := clog.FromContext(ctx).With("tool", name)

			args, err := params.Bind[A](req.GetArguments())
			if err != nil {
				return mcp.NewToolResultErrorf("invalid arguments: %v", err), nil
			}
			out, err := fn(ctx, args)
			if err != nil {
				log.Warnf("Tool failed: %v", err)
				return mcp.NewToolResultError(err.Error()), nil
			}
			log.Info("Tool succeeded")
			return mcp.NewToolResultJSON(out)
		})
		return nil
	}
}

// New returns a server advertising the registered tools.
func New(name, version string, tools ...Registration) (*server.MCPServer, error) {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	for _, register := range tools {
		if err := register(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Serve speaks MCP over in and out until ctx is cancelled or in is closed.
// Diagnostics go to errOut, never to out.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out, errOut io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(errOut, "", log.LstdFlags))
	return stdio.Listen(ctx, in, out)
}
