/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package multiclient

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"chainguard.dev/mcpagent/agents/mcpclient"
	"chainguard.dev/mcpagent/agents/retry"
	"chainguard.dev/mcpagent/agents/toolcall"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Conn is a single tool server connection. *mcpclient.Connection satisfies it.
type Conn interface {
	Name() string
	ListTools(ctx context.Context) ([]toolcall.Descriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
	Ping(ctx context.Context) error
	Close() error
}

// Connector establishes a connection from a server config.
type Connector func(ctx context.Context, cfg mcpclient.ServerConfig) (Conn, error)

// MultiClient aggregates tool servers. It is owned by a single run and must
// be closed when the run ends.
type MultiClient struct {
	conns []Conn
}

type options struct {
	startupTimeout time.Duration
	connector      Connector
	clientOpts     []mcpclient.Option
	retry          retry.Config
}

// Option configures New.
type Option func(*options) error

// WithStartupTimeout bounds how long New waits for freshly started servers to
// answer a ping. Servers that stay silent are logged and kept; the first real
// call against them surfaces the problem.
func WithStartupTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("startup timeout cannot be negative")
		}
		o.startupTimeout = d
		return nil
	}
}

// WithConnector replaces the function used to connect each server.
func WithConnector(c Connector) Option {
	return func(o *options) error {
		if c == nil {
			return errors.New("connector cannot be nil")
		}
		o.connector = c
		return nil
	}
}

// WithClientOptions passes options through to mcpclient.Connect.
func WithClientOptions(opts ...mcpclient.Option) Option {
	return func(o *options) error {
		o.clientOpts = append(o.clientOpts, opts...)
		return nil
	}
}

// WithRetryConfig sets the backoff used while waiting for servers to start.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *options) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid retry config: %w", err)
		}
		o.retry = cfg
		return nil
	}
}

// New connects every configured server concurrently. The returned aggregator
// keeps the order of configs, which decides routing on duplicate tool names.
func New(ctx context.Context, configs []mcpclient.ServerConfig, opts ...Option) (*MultiClient, error) {
	o := options{retry: retry.DefaultConfig()}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if o.connector == nil {
		o.connector = func(ctx context.Context, cfg mcpclient.ServerConfig) (Conn, error) {
			c, err := mcpclient.Connect(ctx, cfg, o.clientOpts...)
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}

	conns := make([]Conn, len(configs))
	errs := make([]error, len(configs))

	// Every connection attempt runs to completion so that failures are all
	// reported and successes can be closed.
	var g errgroup.Group
	for i, cfg := range configs {
		g.Go(func() error {
			c, err := o.connector(ctx, cfg)
			if err != nil {
				errs[i] = &AggregationError{Server: cfg.Name, Err: err}
				return nil
			}
			conns[i] = c
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		for _, c := range conns {
			if c == nil {
				continue
			}
			if cerr := c.Close(); cerr != nil {
				clog.FromContext(ctx).With("server", c.Name()).
					With("error", cerr.Error()).
					Warn("Failed to close tool server after aborted startup")
			}
		}
		return nil, err
	}

	mc := &MultiClient{conns: conns}
	if o.startupTimeout > 0 {
		mc.awaitReady(ctx, o.startupTimeout, o.retry)
	}
	return mc, nil
}

// FromConnections builds an aggregator over connections that are already
// established, in the given order.
func FromConnections(conns ...Conn) *MultiClient {
	return &MultiClient{conns: slices.Clone(conns)}
}

// awaitReady pings every server until it answers or the grace period ends.
func (m *MultiClient) awaitReady(ctx context.Context, grace time.Duration, cfg retry.Config) {
	ctx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	var g errgroup.Group
	for _, c := range m.conns {
		g.Go(func() error {
			if err := retry.Until(ctx, cfg, "waiting for tool server", c.Ping); err != nil {
				clog.FromContext(ctx).With("server", c.Name()).
					With("error", err.Error()).
					Warn("Tool server did not answer within the startup grace period")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Servers returns the names of the connected servers in registration order.
func (m *MultiClient) Servers() []string {
	names := make([]string, 0, len(m.conns))
	for _, c := range m.conns {
		names = append(names, c.Name())
	}
	return names
}

// ListTools returns the combined catalog. A tool name advertised by more than
// one server is listed once, for the first server.
func (m *MultiClient) ListTools(ctx context.Context) ([]toolcall.Descriptor, error) {
	var (
		tools []toolcall.Descriptor
		seen  = make(map[string]string)
	)
	for _, c := range m.conns {
		listed, err := c.ListTools(ctx)
		if err != nil {
			return nil, &AggregationError{Server: c.Name(), Err: err}
		}
		for _, t := range listed {
			if owner, dup := seen[t.Name]; dup {
				clog.FromContext(ctx).With("tool", t.Name).
					With("server", c.Name()).
					With("owner", owner).
					Debug("Tool shadowed by an earlier server")
				continue
			}
			seen[t.Name] = c.Name()
			tools = append(tools, t)
		}
	}
	return tools, nil
}

// CallTool routes the call to the first server whose current catalog
// contains name.
func (m *MultiClient) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	for _, c := range m.conns {
		listed, err := c.ListTools(ctx)
		if err != nil {
			return nil, &ToolInvocationError{
				Tool:   name,
				Server: c.Name(),
				Err:    &AggregationError{Server: c.Name(), Err: err},
			}
		}
		if !slices.ContainsFunc(listed, func(t toolcall.Descriptor) bool { return t.Name == name }) {
			continue
		}

		result, err := c.CallTool(ctx, name, args)
		if err != nil {
			return nil, &ToolInvocationError{Tool: name, Server: c.Name(), Err: err}
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrToolNotFound, name)
}

// Close closes every connection, returning all failures.
func (m *MultiClient) Close() error {
	errs := make([]error, 0, len(m.conns))
	for _, c := range m.conns {
		errs = append(errs, c.Close())
	}
	m.conns = nil
	return errors.Join(errs...)
}
