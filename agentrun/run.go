/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentrun

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"chainguard.dev/mcpagent/agents/agenttrace"
	"chainguard.dev/mcpagent/agents/chat"
	"chainguard.dev/mcpagent/agents/executor"
	"chainguard.dev/mcpagent/agents/mcpclient"
	"chainguard.dev/mcpagent/agents/multiclient"
	"chainguard.dev/mcpagent/agents/provider"
	"chainguard.dev/mcpagent/githubauth"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v75/github"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"
)

// Version is reported to tool servers during the initialize handshake.
var Version = "1.0.0"

type runner struct {
	completer   chat.Completer
	tokenSource oauth2.TokenSource
	github      *github.Client
	executable  string
	mcOpts      []multiclient.Option
}

// Option configures Run.
type Option func(*runner) error

// WithCompleter replaces the completion backend selected from the model.
func WithCompleter(c chat.Completer) Option {
	return func(r *runner) error {
		if c == nil {
			return errors.New("completer cannot be nil")
		}
		r.completer = c
		return nil
	}
}

// WithTokenSource sets the GitHub credentials handed to the bundled tool
// servers and used for the summary comment and labels. Required.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(r *runner) error {
		if ts == nil {
			return errors.New("token source cannot be nil")
		}
		r.tokenSource = ts
		return nil
	}
}

// WithGitHubClient replaces the client built from the token source.
func WithGitHubClient(gh *github.Client) Option {
	return func(r *runner) error {
		if gh == nil {
			return errors.New("github client cannot be nil")
		}
		r.github = gh
		return nil
	}
}

// WithExecutable sets the binary that serves the bundled tools. Defaults to
// the running executable.
func WithExecutable(path string) Option {
	return func(r *runner) error {
		if path == "" {
			return errors.New("executable cannot be empty")
		}
		r.executable = path
		return nil
	}
}

// WithMultiClientOptions passes options through to multiclient.New.
func WithMultiClientOptions(opts ...multiclient.Option) Option {
	return func(r *runner) error {
		r.mcOpts = append(r.mcOpts, opts...)
		return nil
	}
}

// Run executes the agent once. Labels are adjusted on the triggering issue
// or pull request whether or not the run succeeds; the returned error is
// the run's.
func Run(ctx context.Context, cfg Config, opts ...Option) (err error) {
	r := &runner{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if r.tokenSource == nil {
		return errors.New("a GitHub token source is required")
	}
	if r.github == nil {
		r.github = githubauth.NewClient(ctx, r.tokenSource)
	}
	if r.executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
		r.executable = exe
	}

	ev, err := LoadEvent(cfg.EventPath)
	if err != nil {
		return err
	}
	if ev.Target != nil {
		defer func() {
			add, remove := SplitLabels(cfg.AddLabelOnSuccess), SplitLabels(cfg.RemoveLabelOnSuccess)
			if err != nil {
				add, remove = SplitLabels(cfg.AddLabelOnError), SplitLabels(cfg.RemoveLabelOnError)
			}
			updateLabels(ctx, r.github, *ev.Target, add, remove)
		}()
	}

	return r.run(ctx, cfg, ev)
}

func (r *runner) run(ctx context.Context, cfg Config, ev *Event) error {
	log := clog.FromContext(ctx)

	msgs, err := Messages(cfg, ev)
	if err != nil {
		return err
	}

	tok, err := r.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("resolving GitHub token: %w", err)
	}
	servers, err := Servers(ServerOptions{
		Executable: r.executable,
		Token:      tok.AccessToken,
		Workspace:  cfg.Workspace,
	}, cfg.MCPServers)
	if err != nil {
		return err
	}

	completer := r.completer
	if completer == nil {
		if completer, err = provider.New(ctx, cfg.Provider()); err != nil {
			return fmt.Errorf("creating completion client: %w", err)
		}
	}

	execCtx := executionContext(cfg, ev)
	exec, err := executor.New(completer,
		executor.WithModel(cfg.Model),
		executor.WithAttributeEnricher(func(_ context.Context, attrs []attribute.KeyValue) []attribute.KeyValue {
			return execCtx.EnrichAttributes(attrs)
		}),
	)
	if err != nil {
		return err
	}

	log.With("servers", len(servers)).Info("Starting tool servers")
	mc, err := multiclient.New(ctx, servers, append([]multiclient.Option{
		multiclient.WithStartupTimeout(cfg.StartupTimeout()),
		multiclient.WithClientOptions(mcpclient.WithClientInfo("mcpagent", Version)),
	}, r.mcOpts...)...)
	if err != nil {
		return fmt.Errorf("starting tool servers: %w", err)
	}
	defer func() {
		if err := mc.Close(); err != nil {
			log.With("error", err.Error()).Warn("Failed to stop tool servers")
		}
	}()

	var (
		mu    sync.Mutex
		trace *agenttrace.Trace
	)
	ctx = agenttrace.WithExecutionContext(ctx, execCtx)
	ctx = agenttrace.WithTracer(ctx, agenttrace.ByCode(
		func(t *agenttrace.Trace) {
			mu.Lock()
			defer mu.Unlock()
			trace = t
		},
		func(t *agenttrace.Trace) {
			log.With("trace_id", t.ID).
				With("duration_ms", t.Duration().Milliseconds()).
				With("tool_calls", len(t.ToolCalls)).
				Debug("Agent trace completed", "trace", t.String())
		},
	))

	produced, err := exec.Execute(ctx, msgs, mc)
	if err != nil {
		return err
	}
	log.With("messages", len(produced)).Info("Agent finished")

	if !cfg.LogActionsToIssue {
		return nil
	}
	if ev.Target == nil {
		log.Warn("Could not determine issue or PR number from event context; skipping comment")
		return nil
	}

	mu.Lock()
	var calls []*agenttrace.ToolCall
	if trace != nil {
		calls = trace.ToolCalls
	}
	mu.Unlock()

	body := Summary(produced, calls)
	if body == "" {
		log.Info("No text response to post as comment")
		return nil
	}
	return postComment(ctx, r.github, *ev.Target, body)
}

func executionContext(cfg Config, ev *Event) agenttrace.ExecutionContext {
	ec := agenttrace.ExecutionContext{
		Repository: cfg.Repository,
		EventName:  cfg.EventName,
		RunID:      cfg.RunID,
	}
	if t := ev.Target; t != nil {
		ec.Repository = t.Owner + "/" + t.Repo
		ec.Number = t.Number
	}
	return ec
}
