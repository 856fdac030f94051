/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// Connection is an initialized session with one tool server.
type Connection struct {
	name   string
	client *client.Client
	server mcp.Implementation
}

type options struct {
	clientInfo mcp.Implementation
}

// Option configures Connect and NewConnection.
type Option func(*options) error

// WithClientInfo sets the implementation name and version sent during the
// initialize handshake.
func WithClientInfo(name, version string) Option {
	return func(o *options) error {
		if name == "" {
			return errors.New("client name cannot be empty")
		}
		o.clientInfo = mcp.Implementation{Name: name, Version: version}
		return nil
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{
		clientInfo: mcp.Implementation{Name: "mcpagent", Version: "0.1.0"},
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return o, nil
}

// Connect launches or dials the configured server and performs the MCP
// initialize handshake.
func Connect(ctx context.Context, cfg ServerConfig, opts ...Option) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		c   *client.Client
		err error
	)
	switch cfg.Transport() {
	case TypeStdio:
		// The subprocess outlives ctx; it is stopped by Close.
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.environ(), cfg.Args...)
	case TypeHTTP:
		c, err = client.NewStreamableHttpClient(cfg.URL, transport.WithHTTPHeaders(cfg.Headers))
	case TypeSSE:
		c, err = client.NewSSEMCPClient(cfg.URL, client.WithHeaders(cfg.Headers))
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client for server %q: %w", cfg.Transport(), cfg.Name, err)
	}

	return NewConnection(ctx, cfg.Name, c, opts...)
}

// NewConnection takes ownership of c, starts its transport and performs the
// initialize handshake. The client is closed if either step fails.
func NewConnection(ctx context.Context, name string, c *client.Client, opts ...Option) (*Connection, error) {
	o, err := buildOptions(opts)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	// Network transports bind their event stream to the start context; the
	// stream ends with Close, not with ctx.
	if err := c.Start(context.WithoutCancel(ctx)); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("starting server %q: %w", name, err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = o.clientInfo
	res, err := c.Initialize(ctx, req)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initializing server %q: %w", name, err)
	}

	clog.FromContext(ctx).With("server", name).
		With("server_name", res.ServerInfo.Name).
		With("server_version", res.ServerInfo.Version).
		Info("Connected to tool server")

	return &Connection{name: name, client: c, server: res.ServerInfo}, nil
}

// Name returns the configured server name.
func (c *Connection) Name() string {
	return c.name
}

// ServerInfo returns the implementation reported by the server.
func (c *Connection) ServerInfo() mcp.Implementation {
	return c.server
}

// ListTools returns the server's current tool catalog in the order advertised.
func (c *Connection) ListTools(ctx context.Context) ([]toolcall.Descriptor, error) {
	res, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing tools on server %q: %w", c.name, err)
	}

	tools := make([]toolcall.Descriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		raw := t.RawInputSchema
		if len(raw) == 0 {
			if raw, err = json.Marshal(t.InputSchema); err != nil {
				return nil, fmt.Errorf("encoding schema of tool %q on server %q: %w", t.Name, c.name, err)
			}
		}
		s, err := toolcall.ParseSchema(raw)
		if err != nil {
			return nil, fmt.Errorf("tool %q on server %q: %w", t.Name, c.name, err)
		}
		tools = append(tools, toolcall.Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Schema:      s,
			RawSchema:   raw,
		})
	}
	return tools, nil
}

// ToolError is a failure reported by the tool itself (an MCP result with
// isError set), as opposed to a transport failure.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tool %q failed", e.Tool)
	}
	return e.Message
}

// CallTool invokes a tool and returns its payload: the structured content
// when present, else the text content joined by newlines, else the raw
// content list.
func (c *Connection) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := c.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("calling tool %q on server %q: %w", name, c.name, err)
	}

	text := joinText(res.Content)
	if res.IsError {
		return nil, &ToolError{Tool: name, Message: text}
	}
	switch {
	case res.StructuredContent != nil:
		return res.StructuredContent, nil
	case text != "":
		return text, nil
	case len(res.Content) > 0:
		return res.Content, nil
	default:
		return nil, nil
	}
}

func joinText(content []mcp.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := mcp.AsTextContent(c); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Ping checks that the server is responsive.
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("pinging server %q: %w", c.name, err)
	}
	return nil
}

// Close ends the session, stopping the subprocess for stdio servers.
func (c *Connection) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("closing server %q: %w", c.name, err)
	}
	return nil
}
